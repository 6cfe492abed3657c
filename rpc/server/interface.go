package server

import (
	"github.com/ValentinKolb/maxstore/lib/medium"
	"github.com/ValentinKolb/maxstore/rpc/common"
)

// IRPCServerAdapter translates request messages into calls on a medium
type IRPCServerAdapter interface {
	// Handle executes req against m and returns the response.
	// Errors are reported inside the response, never as a nil response.
	Handle(req *common.Message, m medium.IMedium) (resp *common.Message)
}
