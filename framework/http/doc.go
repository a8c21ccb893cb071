// Package http provides request and response helpers for chi handlers.
//
// # Request
//
//	req := gohttp.NewRequest(r)
//
//	var payload map[string]any
//	if err := req.Bind(&payload); err != nil { ... }
//
//	page  := req.Query("page", "1")
//	id    := req.RouteParam("id")
//	token := req.BearerToken()
//	yaml  := req.Accepts("application/yaml")
//
// # Response
//
//	res := gohttp.NewResponse(w)
//
//	res.Success(v)                  // 200 {"data": v}
//	res.Created(v)                  // 201 {"data": v}
//	res.NoContent()                 // 204
//	res.YAML(http.StatusOK, v)      // application/yaml
//	res.Error(404, "not found")     // {"message": "..."}
//	res.Problem(422, msg, fields)   // {"message": "...", ...fields}
//	res.ValidationError(v.Errors()) // 422 {"errors": {...}}
package http
