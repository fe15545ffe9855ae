// Package http serves the documents of a database as JSON.
package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/nasdf/odm"
	"github.com/nasdf/odm/document"
	"github.com/nasdf/odm/object"
	"github.com/nasdf/odm/selector"
)

// ListenAndServe starts an http server bound to the given address.
func ListenAndServe(db *odm.DB, addr string) error {
	return http.ListenAndServe(addr, Handler(db))
}

// PatchRequest is the body of a PATCH request.
type PatchRequest struct {
	Mutations []odm.Mutation `json:"mutations"`
}

// Response is the body of every successful response.
type Response struct {
	ID        string                    `json:"id"`
	Operators map[string]map[string]any `json:"operators,omitempty"`
	Document  map[string]any            `json:"document,omitempty"`
}

// ErrorResponse is the body of a failed request.
type ErrorResponse struct {
	Error  string                       `json:"error"`
	Fields map[string]map[string]string `json:"fields,omitempty"`
}

// Handler returns an http.Handler serving the documents of the database.
//
//	GET    /{collection}/{id}   returns the stored document
//	POST   /{collection}        inserts the fields in the body as a new document
//	PATCH  /{collection}/{id}   applies the mutations in the body and saves them
//	DELETE /{collection}/{id}   removes the document
//
// Documents carry the content hash of their fields as ETag. GET honors
// If-None-Match and PATCH rejects a stale If-Match.
func Handler(db *odm.DB) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{collection}/{id}", func(w http.ResponseWriter, r *http.Request) {
		coll, err := db.Collection(r.PathValue("collection"))
		if err != nil {
			writeError(w, err)
			return
		}
		d, err := coll.GetDocument(r.Context(), document.ID(r.PathValue("id")))
		if err != nil {
			writeError(w, err)
			return
		}
		tag, err := etag(d)
		if err != nil {
			writeError(w, err)
			return
		}
		w.Header().Set("ETag", tag)
		if r.Header.Get("If-None-Match") == tag {
			w.WriteHeader(http.StatusNotModified)
			return
		}
		writeJSON(w, http.StatusOK, Response{ID: d.ID().String(), Document: d.Map()})
	})

	mux.HandleFunc("POST /{collection}", func(w http.ResponseWriter, r *http.Request) {
		var fields map[string]any
		if err := decode(r, &fields); err != nil {
			http.Error(w, fmt.Sprintf("failed to parse body: %v", err), http.StatusBadRequest)
			return
		}
		coll, err := db.Collection(r.PathValue("collection"))
		if err != nil {
			writeError(w, err)
			return
		}
		d, err := coll.CreateDocument(fields)
		if err != nil {
			writeError(w, err)
			return
		}
		if err := coll.SaveDocument(r.Context(), d); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, Response{ID: d.ID().String(), Document: d.Map()})
	})

	mux.HandleFunc("PATCH /{collection}/{id}", func(w http.ResponseWriter, r *http.Request) {
		var req PatchRequest
		if err := decode(r, &req); err != nil {
			http.Error(w, fmt.Sprintf("failed to parse body: %v", err), http.StatusBadRequest)
			return
		}
		coll, err := db.Collection(r.PathValue("collection"))
		if err != nil {
			writeError(w, err)
			return
		}
		d, err := coll.GetDocument(r.Context(), document.ID(r.PathValue("id")))
		if err != nil {
			writeError(w, err)
			return
		}
		if match := r.Header.Get("If-Match"); match != "" {
			tag, err := etag(d)
			if err != nil {
				writeError(w, err)
				return
			}
			if match != tag {
				writeJSON(w, http.StatusPreconditionFailed, ErrorResponse{Error: "document has changed"})
				return
			}
		}
		for _, m := range req.Mutations {
			if err := m.Apply(d); err != nil {
				writeError(w, err)
				return
			}
		}
		ops := odm.OperatorsMap(d.Pending())
		if err := coll.SaveDocument(r.Context(), d); err != nil {
			writeError(w, err)
			return
		}
		if tag, err := etag(d); err == nil {
			w.Header().Set("ETag", tag)
		}
		writeJSON(w, http.StatusOK, Response{ID: d.ID().String(), Operators: ops, Document: d.Map()})
	})

	mux.HandleFunc("DELETE /{collection}/{id}", func(w http.ResponseWriter, r *http.Request) {
		coll, err := db.Collection(r.PathValue("collection"))
		if err != nil {
			writeError(w, err)
			return
		}
		d, err := coll.GetDocument(r.Context(), document.ID(r.PathValue("id")))
		if err != nil {
			writeError(w, err)
			return
		}
		if err := coll.DeleteDocument(r.Context(), d); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})
	return mux
}

// etag returns the quoted content hash of the document fields.
func etag(d *document.Document) (string, error) {
	h, err := object.Of(d.Fields())
	if err != nil {
		return "", err
	}
	return `"` + h.String() + `"`, nil
}

// decode reads a JSON body keeping integers apart from floats.
func decode(r *http.Request, out any) error {
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	if err := dec.Decode(out); err != nil {
		return err
	}
	switch x := out.(type) {
	case *map[string]any:
		*x = normalize(*x).(map[string]any)
	case *PatchRequest:
		for i, m := range x.Mutations {
			m.Value = normalize(m.Value)
			m.Match = normalize(m.Match)
			for j, v := range m.Values {
				m.Values[j] = normalize(v)
			}
			x.Mutations[i] = m
		}
	}
	return nil
}

func normalize(v any) any {
	switch x := v.(type) {
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return i
		}
		f, _ := x.Float64()
		return f
	case []any:
		for i, e := range x {
			x[i] = normalize(e)
		}
		return x
	case map[string]any:
		for k, e := range x {
			x[k] = normalize(e)
		}
		return x
	default:
		return v
	}
}

func writeError(w http.ResponseWriter, err error) {
	resp := ErrorResponse{Error: err.Error()}
	var verr *document.ValidationError
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, document.ErrNotFound):
		status = http.StatusNotFound
	case errors.As(err, &verr):
		status = http.StatusUnprocessableEntity
		resp.Fields = verr.Errors
	case errors.Is(err, odm.ErrInvalidMutation),
		errors.Is(err, selector.ErrInvalidSelector),
		errors.Is(err, document.ErrNotNumeric),
		errors.Is(err, document.ErrInvalidExpression):
		status = http.StatusBadRequest
	}
	writeJSON(w, status, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	out, err := json.Marshal(v)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(out)
}
