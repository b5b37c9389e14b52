package api

import (
	"github.com/krehermann/gostackvm/core"
	"github.com/krehermann/gostackvm/types"
)

type ErrorResponse struct {
	Error string `json:"error" cbor:"error"`
	// set when a program ran and faulted
	Result *core.Result `json:"result,omitempty" cbor:"result,omitempty"`
}

type ProgramResponse struct {
	Hash         types.Hash `json:"hash" cbor:"hash"`
	Instructions int        `json:"instructions" cbor:"instructions"`
}

type ProgramListResponse struct {
	Programs []types.Hash `json:"programs" cbor:"programs"`
}

type DisassemblyResponse struct {
	Hash    types.Hash `json:"hash" cbor:"hash"`
	Listing []string   `json:"listing" cbor:"listing"`
}

type HealthResponse struct {
	Status   string `json:"status" cbor:"status"`
	Programs int    `json:"programs" cbor:"programs"`
}
