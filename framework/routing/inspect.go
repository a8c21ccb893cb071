package routing

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/km-arc/go-injector/framework/container"
	gohttp "github.com/km-arc/go-injector/framework/http"
)

// Inspect mounts read-only container endpoints under /_container:
//
//	GET  /_container           registrations as JSON, or YAML with ?format=yaml
//	GET  /_container/make/{id} resolve id, query values become params
//	POST /_container/make/{id} resolve id, the JSON body holds params
//
// Params use the ParseParams grammar (":name" raw, "+name" substitute,
// "name" use). Type ids may contain slashes.
func Inspect(r *Router, c *container.Container) {
	r.Prefix("/_container", func(api *Router) {
		api.Get("/", snapshotHandler(c))
		api.Get("/make/*", makeHandler(c, queryParams))
		api.Post("/make/*", makeHandler(c, bodyParams))
	})
}

func snapshotHandler(c *container.Container) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		request := gohttp.NewRequest(req)
		res := gohttp.NewResponse(w)

		snap := c.Snapshot()
		if request.Query("format") == "yaml" || request.Accepts("application/yaml") {
			res.YAML(http.StatusOK, snap)
			return
		}
		res.Success(snap)
	}
}

func makeHandler(c *container.Container, decode func(*gohttp.Request) (map[string]any, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		request := gohttp.NewRequest(req)
		res := gohttp.NewResponse(w)

		id := container.TypeID(strings.TrimPrefix(Param(req, "*"), "/"))
		if id == "" {
			res.Error(http.StatusBadRequest, "missing type id")
			return
		}

		raw, err := decode(request)
		if err != nil {
			res.Error(http.StatusBadRequest, err.Error())
			return
		}
		params, err := container.ParseParams(raw)
		if err != nil {
			res.Problem(http.StatusBadRequest, err.Error(), map[string]any{"kind": container.Kind(err)})
			return
		}

		inst, err := c.Make(id, params...)
		if err != nil {
			res.Problem(statusFor(err), err.Error(), map[string]any{
				"kind": container.Kind(err),
				"type": string(id),
			})
			return
		}
		res.Success(map[string]any{
			"type":     string(id),
			"concrete": fmt.Sprintf("%T", inst),
		})
	}
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, container.ErrNotConstructible):
		return http.StatusNotFound
	case errors.Is(err, container.ErrConstruction):
		return http.StatusInternalServerError
	default:
		return http.StatusUnprocessableEntity
	}
}

func queryParams(req *gohttp.Request) (map[string]any, error) {
	out := make(map[string]any)
	for key, vals := range req.Raw().URL.Query() {
		if len(vals) > 0 {
			out[key] = vals[0]
		}
	}
	return out, nil
}

func bodyParams(req *gohttp.Request) (map[string]any, error) {
	out := make(map[string]any)
	if req.Raw().ContentLength == 0 {
		return out, nil
	}
	if err := req.Bind(&out); err != nil {
		return nil, err
	}
	return out, nil
}
