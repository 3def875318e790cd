package web

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"github.com/matrix-org/util"
)

// EchoRoutes registers a fake of the HTTP echo service: request headers are reflected back, response
// headers are set from the query string, and basic and bearer authentication can be probed.
func EchoRoutes(r *mux.Router) {
	r.Handle("/get", jsonAPI(func(req *http.Request) util.JSONResponse {
		args := map[string]string{}
		for k := range req.URL.Query() {
			args[k] = req.URL.Query().Get(k)
		}
		return jsonResponse(200, map[string]interface{}{
			"args":    args,
			"headers": echoHeaders(req),
			"url":     req.URL.String(),
		})
	})).Methods("GET")
	r.Handle("/headers", jsonAPI(func(req *http.Request) util.JSONResponse {
		return jsonResponse(200, map[string]interface{}{"headers": echoHeaders(req)})
	})).Methods("GET")
	r.Handle("/response-headers", jsonAPI(func(req *http.Request) util.JSONResponse {
		out := map[string]string{}
		for k := range req.URL.Query() {
			out[http.CanonicalHeaderKey(k)] = req.URL.Query().Get(k)
		}
		return util.JSONResponse{Code: 200, JSON: out, Headers: out}
	})).Methods("GET", "POST")
	r.Handle("/basic-auth/{user}/{passwd}", jsonAPI(func(req *http.Request) util.JSONResponse {
		vars := mux.Vars(req)
		user, passwd, ok := req.BasicAuth()
		if !ok || user != vars["user"] || passwd != vars["passwd"] {
			return unauthorized(`Basic realm="Fake Realm"`)
		}
		return jsonResponse(200, map[string]interface{}{"authenticated": true, "user": user})
	})).Methods("GET")
	r.Handle("/bearer", jsonAPI(func(req *http.Request) util.JSONResponse {
		token, ok := strings.CutPrefix(req.Header.Get("Authorization"), "Bearer ")
		if !ok || token == "" {
			return unauthorized("Bearer")
		}
		return jsonResponse(200, map[string]interface{}{"authenticated": true, "token": token})
	})).Methods("GET")
	r.HandleFunc("/status/{code:[0-9]{3}}", func(w http.ResponseWriter, req *http.Request) {
		code, _ := strconv.Atoi(mux.Vars(req)["code"])
		w.WriteHeader(code)
	})
	r.HandleFunc("/html", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(200)
		_, _ = w.Write([]byte("<!DOCTYPE html><html><body><h1>Herman Melville - Moby-Dick</h1></body></html>"))
	}).Methods("GET")
}

func unauthorized(challenge string) util.JSONResponse {
	return util.JSONResponse{
		Code:    401,
		JSON:    struct{}{},
		Headers: map[string]string{"WWW-Authenticate": challenge},
	}
}

func echoHeaders(req *http.Request) map[string]string {
	headers := map[string]string{"Host": req.Host}
	for k, v := range req.Header {
		headers[k] = strings.Join(v, ",")
	}
	return headers
}
