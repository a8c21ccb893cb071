package app

import (
	"fmt"
	"net/http"
	"strings"

	foundation "github.com/km-arc/go-injector/framework/app"
	"github.com/km-arc/go-injector/framework/container"
	"github.com/km-arc/go-injector/framework/http/validation"
	"github.com/km-arc/go-injector/framework/routing"
)

// Vowel is satisfied by the letters a Sound can be built around.
type Vowel interface{ Letter() string }

type E struct{}

func (*E) Letter() string { return "E" }

type U struct{}

func (*U) Letter() string { return "U" }

// Sound wraps a vowel: "aEo" or "aUo".
type Sound struct{ V Vowel }

func NewSound(v Vowel) *Sound { return &Sound{V: v} }

func (s *Sound) Say() string { return "a" + s.V.Letter() + "o" }

var SoundID = container.TypeOf[*Sound]()

var vowelRules = validation.Rules{"vowel": "omitempty,oneof=E U"}

// ParseVowel checks a vowel name. An empty name means "E".
func ParseVowel(name string) (container.TypeID, error) {
	v := validation.Make(map[string]string{"vowel": name}, vowelRules)
	if v.Fails() {
		return "", fmt.Errorf("invalid vowel %q: %s", name, strings.Join(v.Errors().Bag["vowel"], " "))
	}
	if name == "" {
		return "E", nil
	}
	return container.TypeID(name), nil
}

// ── SoundServiceProvider ──────────────────────────────────────────────────────

// SoundServiceProvider teaches the container the sound types and mounts
// GET /sound.
//
// Bound ids:
//   - "E", "U"  → *E, *U
//   - SoundID   → *Sound, defaulting its vowel to Default
type SoundServiceProvider struct {
	container.BaseProvider
	App     *foundation.Application
	Default container.TypeID // "E" when empty
}

func (p *SoundServiceProvider) Register(r container.Registrar) error {
	c := p.App.Container
	if err := c.Constructor(NewSound, "v"); err != nil {
		return err
	}
	if _, err := container.Register[*E](c, "E"); err != nil {
		return err
	}
	if _, err := container.Register[*U](c, "U"); err != nil {
		return err
	}
	if _, err := container.Register[Vowel](c); err != nil {
		return err
	}

	vowel, err := ParseVowel(string(p.Default))
	if err != nil {
		return err
	}
	r.Define(SoundID, container.Use("v", vowel))
	return nil
}

func (p *SoundServiceProvider) Boot(c *container.Container) error {
	router, err := container.Resolve[*routing.Router](c)
	if err != nil {
		return err
	}
	ctrl := &SoundController{App: p.App}
	router.Get("/sound", ctrl.Show)
	return nil
}

// ── SoundController ───────────────────────────────────────────────────────────

// SoundController builds a Sound per request.
type SoundController struct {
	foundation.Controller
	App *foundation.Application
}

// Show handles GET /sound?vowel=E|U. Without a vowel the defined default
// is used.
func (s *SoundController) Show(w http.ResponseWriter, r *http.Request) {
	req := s.Request(r)
	res := s.Response(w)

	vowel := req.Query("vowel")
	v := validation.Make(map[string]string{"vowel": vowel}, vowelRules)
	if v.Fails() {
		res.ValidationError(v.Errors())
		return
	}

	var params []container.Param
	if vowel != "" {
		params = append(params, container.Use("v", container.TypeID(vowel)))
	}
	sound, err := container.Resolve[*Sound](s.App.Container, params...)
	if err != nil {
		res.Problem(http.StatusInternalServerError, err.Error(), map[string]any{"kind": container.Kind(err)})
		return
	}
	res.Success(map[string]any{
		"sound": sound.Say(),
		"vowel": sound.V.Letter(),
	})
}
