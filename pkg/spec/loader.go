package spec

import (
	"fmt"
	"os"

	"github.com/bgpsim/bgpsim/pkg/simerr"
	"golang.org/x/mod/semver"
	"gopkg.in/yaml.v3"
)

// CurrentAPIVersion is the scenario schema version this build understands.
// A scenario file declaring a newer api_version is rejected rather than
// silently loaded against a schema it wasn't written for.
const CurrentAPIVersion = "v1.0.0"

// Load reads and parses the scenario file at path, then validates every
// cross-reference (router names used by links/sessions/route-maps/etc
// must be declared in routers or externals).
func Load(path string) (*ScenarioSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scenario %s: %w", path, err)
	}
	return Parse(data)
}

// Parse parses raw YAML scenario data, validating it the same way Load does.
func Parse(data []byte) (*ScenarioSpec, error) {
	var s ScenarioSpec
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parsing scenario: %w", err)
	}
	if err := validate(&s); err != nil {
		return nil, fmt.Errorf("validating scenario: %w", err)
	}
	return &s, nil
}

func validate(s *ScenarioSpec) error {
	v := &simerr.Builder{}

	if s.APIVersion != "" {
		if !semver.IsValid(s.APIVersion) {
			v.Addf("api_version %q is not a valid semantic version", s.APIVersion)
		} else if semver.Compare(s.APIVersion, CurrentAPIVersion) > 0 {
			v.Addf("scenario requires api_version %s, this build supports up to %s", s.APIVersion, CurrentAPIVersion)
		}
	}

	names := make(map[string]bool, len(s.Routers)+len(s.Externals))

	for i, r := range s.Routers {
		v.Add(r.Name != "", fmt.Sprintf("routers[%d]: name is required", i))
		v.Add(!names[r.Name], fmt.Sprintf("routers[%d]: duplicate name %q", i, r.Name))
		names[r.Name] = true
	}
	for i, r := range s.Externals {
		v.Add(r.Name != "", fmt.Sprintf("externals[%d]: name is required", i))
		v.Add(!names[r.Name], fmt.Sprintf("externals[%d]: duplicate name %q", i, r.Name))
		names[r.Name] = true
	}

	known := func(name string) bool { return names[name] }

	for i, l := range s.Links {
		if !known(l.A) {
			v.Addf("links[%d]: unknown router %q", i, l.A)
		}
		if !known(l.Z) {
			v.Addf("links[%d]: unknown router %q", i, l.Z)
		}
	}
	for i, sess := range s.Sessions {
		if !known(sess.A) {
			v.Addf("sessions[%d]: unknown router %q", i, sess.A)
		}
		if !known(sess.Z) {
			v.Addf("sessions[%d]: unknown router %q", i, sess.Z)
		}
		v.Add(sess.Kind == "ebgp" || sess.Kind == "ibgp", fmt.Sprintf("sessions[%d]: kind must be ebgp or ibgp, got %q", i, sess.Kind))
		if sess.Client != "" {
			v.Add(sess.Client == sess.A || sess.Client == sess.Z, fmt.Sprintf("sessions[%d]: client %q must name one of its own endpoints", i, sess.Client))
		}
	}
	for i, sr := range s.StaticRoutes {
		if !known(sr.Router) {
			v.Addf("static_routes[%d]: unknown router %q", i, sr.Router)
		}
		v.Add(sr.Kind == "direct" || sr.Kind == "indirect", fmt.Sprintf("static_routes[%d]: kind must be direct or indirect, got %q", i, sr.Kind))
		if !known(sr.Target) {
			v.Addf("static_routes[%d]: unknown target %q", i, sr.Target)
		}
	}
	for i, lb := range s.LoadBalancing {
		if !known(lb.Router) {
			v.Addf("load_balancing[%d]: unknown router %q", i, lb.Router)
		}
	}
	for i, rm := range s.RouteMaps {
		if !known(rm.Router) {
			v.Addf("route_maps[%d]: unknown router %q", i, rm.Router)
		}
		if !known(rm.Neighbor) {
			v.Addf("route_maps[%d]: unknown neighbor %q", i, rm.Neighbor)
		}
		v.Add(rm.Direction == "in" || rm.Direction == "out", fmt.Sprintf("route_maps[%d]: direction must be in or out, got %q", i, rm.Direction))
		v.Add(rm.State == "allow" || rm.State == "deny", fmt.Sprintf("route_maps[%d]: state must be allow or deny, got %q", i, rm.State))
		v.Add(rm.Flow == "exit" || rm.Flow == "continue" || rm.Flow == "", fmt.Sprintf("route_maps[%d]: flow must be exit or continue, got %q", i, rm.Flow))
	}
	for i, a := range s.Advertisements {
		if !known(a.Router) {
			v.Addf("advertisements[%d]: unknown router %q", i, a.Router)
		}
	}
	if s.CustomProtocol != nil {
		v.Add(s.CustomProtocol.Kind == "distance-vector" || s.CustomProtocol.Kind == "path-vector",
			fmt.Sprintf("custom_protocol: kind must be distance-vector or path-vector, got %q", s.CustomProtocol.Kind))
		for i, n := range s.CustomProtocol.Neighbors {
			if !known(n.A) {
				v.Addf("custom_protocol.neighbors[%d]: unknown router %q", i, n.A)
			}
			if !known(n.Z) {
				v.Addf("custom_protocol.neighbors[%d]: unknown router %q", i, n.Z)
			}
		}
	}

	return v.Build()
}
