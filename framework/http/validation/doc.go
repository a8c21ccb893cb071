// Package validation validates flat request input with go-playground
// validator tags and collects the failures in a per-field error bag.
//
//	v := validation.Make(map[string]string{
//	    "vowel": req.Query("vowel"),
//	}, validation.Rules{
//	    "vowel": "required,oneof=E U",
//	})
//
//	if v.Fails() {
//	    res.ValidationError(v.Errors()) // 422 {"errors": {"vowel": ["..."]}}
//	}
package validation
