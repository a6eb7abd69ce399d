// Package testserver is a minimal in-process implementation of the
// Git LFS Batch API, backed by an objectstore.Store. It exists so the
// transfer engine's Pull/Push have "a reachable test endpoint" to
// exercise without depending on an external LFS host, grounded on the
// teacher's integration-tests/integration_test.go style of spinning up
// a real local server. Its handlers are not metrics-instrumented.
package testserver

import (
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"

	"github.com/git-lfs/lfscore/batchapi"
	"github.com/git-lfs/lfscore/objectstore"
	"github.com/git-lfs/lfscore/pointer"
)

// Server is a fake Batch API endpoint. It always offers a download
// action for objects the store already has and an upload action (plus
// a verify action) for objects it doesn't, which is the minimal
// behavior the transfer engine needs to drive pull/push.
type Server struct {
	Store *objectstore.Store

	mux *http.ServeMux
	srv *httptest.Server
}

// New starts a Server backed by store and returns it. Call Close when
// done.
func New(store *objectstore.Store) *Server {
	s := &Server{Store: store, mux: http.NewServeMux()}
	s.mux.HandleFunc("/objects/batch", s.handleBatch)
	s.mux.HandleFunc("/objects/", s.handleObject)
	s.srv = httptest.NewServer(s.mux)
	return s
}

// URL returns the server's base LFS endpoint URL, e.g.
// "http://127.0.0.1:PORT".
func (s *Server) URL() string { return s.srv.URL }

// Close shuts down the underlying HTTP server.
func (s *Server) Close() { s.srv.Close() }

func (s *Server) handleBatch(w http.ResponseWriter, r *http.Request) {
	var req batchapi.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	resp := batchapi.Response{Transfer: batchapi.Transfer}
	for _, o := range req.Objects {
		resp.Objects = append(resp.Objects, s.negotiate(req.Operation, o))
	}

	w.Header().Set("Content-Type", batchapi.MediaType)
	json.NewEncoder(w).Encode(resp)
}

func (s *Server) negotiate(op batchapi.Operation, o batchapi.RequestObject) batchapi.ResponseObject {
	raw, err := hex.DecodeString(o.OID)
	if err != nil || len(raw) != 32 {
		return batchapi.ResponseObject{
			OID:   o.OID,
			Size:  o.Size,
			Error: &batchapi.ObjectError{Code: 422, Message: "malformed oid"},
		}
	}
	var p pointer.Pointer
	copy(p.Hash[:], raw)
	p.Size = o.Size

	has := s.Store.Has(p)
	base := s.srv.URL + "/objects/" + o.OID

	switch op {
	case batchapi.OperationDownload:
		if !has {
			return batchapi.ResponseObject{
				OID:  o.OID,
				Size: o.Size,
				Error: &batchapi.ObjectError{
					Code:    404,
					Message: "object not present on this server",
				},
			}
		}
		return batchapi.ResponseObject{
			OID:     o.OID,
			Size:    o.Size,
			Actions: &batchapi.Actions{Download: &batchapi.Action{Href: base}},
		}
	default: // OperationUpload
		if has {
			// Already present: nothing to do.
			return batchapi.ResponseObject{OID: o.OID, Size: o.Size}
		}
		return batchapi.ResponseObject{
			OID:  o.OID,
			Size: o.Size,
			Actions: &batchapi.Actions{
				Upload: &batchapi.Action{Href: base},
				Verify: &batchapi.Action{Href: base + "/verify"},
			},
		}
	}
}

func (s *Server) handleObject(w http.ResponseWriter, r *http.Request) {
	oid, isVerify := parseObjectPath(r.URL.Path)

	raw, err := hex.DecodeString(oid)
	if err != nil || len(raw) != 32 {
		http.Error(w, "malformed oid", http.StatusBadRequest)
		return
	}
	var p pointer.Pointer
	copy(p.Hash[:], raw)

	switch {
	case isVerify && r.Method == http.MethodPost:
		var body batchapi.VerifyRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		p.Size = body.Size
		if !s.Store.Has(p) {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusOK)

	case r.Method == http.MethodGet:
		if err := s.Store.Load(p, w); err != nil {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}

	case r.Method == http.MethodPut:
		if err := s.Store.StoreIfAbsent(p, r.Body); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)

	default:
		http.Error(w, "unsupported method", http.StatusMethodNotAllowed)
	}
}

// parseObjectPath splits "/objects/<oid>" or "/objects/<oid>/verify"
// into (oid, isVerify).
func parseObjectPath(path string) (string, bool) {
	const prefix = "/objects/"
	rest := path[len(prefix):]
	for i := 0; i < len(rest); i++ {
		if rest[i] == '/' {
			return rest[:i], true
		}
	}
	return rest, false
}
