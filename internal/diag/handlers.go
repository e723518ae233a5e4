package diag

import (
	"encoding/hex"
	"encoding/json"
	"net/http"
)

type bufferInfo struct {
	TotalCells      int `json:"totalCells"`
	FreeCells       int `json:"freeCells"`
	CellPayloadSize int `json:"cellPayloadSize"`
}

func (s *Server) handleBuffers(w http.ResponseWriter, r *http.Request) {
	pool := s.node.Pool
	info := bufferInfo{
		TotalCells:      pool.TotalCells(),
		FreeCells:       pool.FreeCells(),
		CellPayloadSize: pool.CellPayloadSize(),
	}
	writeJSON(w, info)
}

type neighborInfo struct {
	ShortAddr uint16 `json:"shortAddr"`
	ExtAddr   string `json:"extAddr"`
	State     string `json:"state"`
	Mode      uint8  `json:"mode"`
	LastHeard int64  `json:"lastHeard"`
}

func (s *Server) handleNeighbors(w http.ResponseWriter, r *http.Request) {
	all := s.node.Neighbors.All()
	out := make([]neighborInfo, 0, len(all))
	for _, n := range all {
		out = append(out, neighborInfo{
			ShortAddr: n.ShortAddr,
			ExtAddr:   hex.EncodeToString(n.ExtAddr[:]),
			State:     n.State.String(),
			Mode:      n.Mode,
			LastHeard: n.LastHeard,
		})
	}
	writeJSON(w, out)
}

type prefixInfo struct {
	Prefix    string `json:"prefix"`
	PrefixLen int    `json:"prefixLen"`
	Stable    bool   `json:"stable"`
	HasRoutes int    `json:"hasRouteCount"`
	OnMesh    bool   `json:"onMesh"`
}

type networkDataInfo struct {
	Version       uint8        `json:"version"`
	StableVersion uint8        `json:"stableVersion"`
	Prefixes      []prefixInfo `json:"prefixes"`
}

func (s *Server) handleNetworkData(w http.ResponseWriter, r *http.Request) {
	store := s.node.Leader.Store
	info := networkDataInfo{Version: store.Version, StableVersion: store.StableVersion}
	for _, p := range store.Prefixes {
		onMesh := false
		for _, br := range p.BorderRouter {
			if br.Valid {
				onMesh = true
				break
			}
		}
		plen := (p.PrefixLen + 7) / 8
		info.Prefixes = append(info.Prefixes, prefixInfo{
			Prefix:    hex.EncodeToString(p.Prefix[:plen]),
			PrefixLen: p.PrefixLen,
			Stable:    p.Stable,
			HasRoutes: len(p.HasRoute),
			OnMesh:    onMesh,
		})
	}
	writeJSON(w, info)
}

type resolverEntryInfo struct {
	Target string `json:"target"`
	Rloc16 uint16 `json:"rloc16"`
	State  string `json:"state"`
}

func (s *Server) handleResolver(w http.ResponseWriter, r *http.Request) {
	snap := s.node.Resolver.Cache.Snapshot()
	out := make([]resolverEntryInfo, 0, len(snap))
	for _, e := range snap {
		out = append(out, resolverEntryInfo{
			Target: hex.EncodeToString(e.Target[:]),
			Rloc16: e.Rloc16,
			State:  e.State.String(),
		})
	}
	writeJSON(w, out)
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
