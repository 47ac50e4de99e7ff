// Package apiconnect wires the api messages to Connect handlers and clients.
//
// Every handler and client installs api.Codec, so requests and responses
// are plain JSON over the Connect protocol (POST, Content-Type
// application/json). Routing follows the usual Connect layout:
// /<package>.<Service>/<Method>.
package apiconnect

import (
	"net/http"

	"connectrpc.com/connect"

	"github.com/mmynk/groupledger/pkg/api"
)

// PackageName is the RPC package shared by all services.
const PackageName = "groupledger.v1"

func handlerOptions(opts []connect.HandlerOption) []connect.HandlerOption {
	return append([]connect.HandlerOption{connect.WithCodec(api.Codec{})}, opts...)
}

func clientOptions(opts []connect.ClientOption) []connect.ClientOption {
	return append([]connect.ClientOption{connect.WithCodec(api.Codec{})}, opts...)
}

// router dispatches a service prefix to its per-procedure handlers.
type router map[string]*connect.Handler

func (rt router) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h, ok := rt[r.URL.Path]
	if !ok {
		http.NotFound(w, r)
		return
	}
	h.ServeHTTP(w, r)
}
