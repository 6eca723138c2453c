package authz

import (
	"fmt"
	"os"
	"sort"
	"strings"

	yaml "gopkg.in/yaml.v2"
)

// Effect — решение по умолчанию для маршрутов без явного правила.
type Effect string

const (
	Deny   Effect = "deny"
	Permit Effect = "permit"
)

// ParseEffect разбирает "deny" / "permit". Пустая строка означает deny.
func ParseEffect(s string) (Effect, error) {
	switch Effect(strings.ToLower(strings.TrimSpace(s))) {
	case "", Deny:
		return Deny, nil
	case Permit:
		return Permit, nil
	}
	return "", fmt.Errorf("unknown policy effect %q", s)
}

// Rule — правило доступа к маршруту.
// Пустое правило (без ролей и флагов) запрещает доступ.
type Rule struct {
	RolesAllowed []string `yaml:"rolesAllowed"`
	PermitAll    bool     `yaml:"permitAll"`
	DenyAll      bool     `yaml:"denyAll"`
}

// Policy сопоставляет пути правилам.
// Ключ без завершающего "/" — точный путь, ключ с "/" на конце — префикс.
type Policy struct {
	Default Effect          `yaml:"default"`
	Routes  map[string]Rule `yaml:"routes"`

	prefixes []string
}

// DefaultPolicy — политика эндпоинта: /endp/echo только для requiredRole,
// остальное под /endp/ закрыто, /ping и /metrics открыты.
func DefaultPolicy(requiredRole string, def Effect) Policy {
	p := Policy{
		Default: def,
		Routes: map[string]Rule{
			"/endp/":     {DenyAll: true},
			"/endp/echo": {RolesAllowed: []string{requiredRole}},
			"/ping":      {PermitAll: true},
			"/metrics":   {PermitAll: true},
		},
	}
	if requiredRole == "" {
		p.Routes["/endp/echo"] = Rule{DenyAll: true}
	}
	p.index()
	return p
}

// ParsePolicy разбирает YAML вида:
//
//	default: deny
//	routes:
//	  /endp/: {denyAll: true}
//	  /endp/echo: {rolesAllowed: [Echoer]}
func ParsePolicy(b []byte) (Policy, error) {
	var p Policy
	if err := yaml.UnmarshalStrict(b, &p); err != nil {
		return Policy{}, fmt.Errorf("parse policy: %w", err)
	}
	def, err := ParseEffect(string(p.Default))
	if err != nil {
		return Policy{}, fmt.Errorf("parse policy: %w", err)
	}
	p.Default = def
	for path, rule := range p.Routes {
		if !strings.HasPrefix(path, "/") {
			return Policy{}, fmt.Errorf("parse policy: route %q must start with /", path)
		}
		if rule.PermitAll && (rule.DenyAll || len(rule.RolesAllowed) > 0) {
			return Policy{}, fmt.Errorf("parse policy: route %q mixes permitAll with other grants", path)
		}
	}
	p.index()
	return p, nil
}

// LoadPolicyFile читает политику из YAML-файла.
func LoadPolicyFile(path string) (Policy, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Policy{}, fmt.Errorf("read policy %s: %w", path, err)
	}
	return ParsePolicy(b)
}

// RuleFor подбирает правило: точный путь, затем самый длинный префикс, затем Default.
func (p Policy) RuleFor(path string) Rule {
	if rule, ok := p.Routes[path]; ok {
		return rule
	}
	prefixes := p.prefixes
	if prefixes == nil {
		prefixes = prefixKeys(p.Routes)
	}
	for _, prefix := range prefixes {
		if strings.HasPrefix(path, prefix) {
			return p.Routes[prefix]
		}
	}
	if p.Default == Permit {
		return Rule{PermitAll: true}
	}
	return Rule{DenyAll: true}
}

func (p *Policy) index() {
	p.prefixes = prefixKeys(p.Routes)
}

// prefixKeys возвращает ключи-префиксы, длинные первыми.
func prefixKeys(routes map[string]Rule) []string {
	keys := make([]string, 0, len(routes))
	for k := range routes {
		if strings.HasSuffix(k, "/") {
			keys = append(keys, k)
		}
	}
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) > len(keys[j])
		}
		return keys[i] < keys[j]
	})
	return keys
}
