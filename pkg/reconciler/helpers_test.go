package reconciler

import (
	"context"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/goccy/go-yaml"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/meshdns/pkg/errors"
	"github.com/agentstation/meshdns/pkg/inventory"
	"github.com/agentstation/meshdns/pkg/logging"
	"github.com/agentstation/meshdns/pkg/records"
)

var errNoHost = errors.New("no host")

// fakeRegistry serves a fixed inventory.
type fakeRegistry struct {
	users    []inventory.User
	nodes    []inventory.Node
	usersErr error
	nodesErr error
}

func (f *fakeRegistry) FetchUsers(context.Context) ([]inventory.User, error) {
	if f.usersErr != nil {
		return nil, f.usersErr
	}
	return append([]inventory.User(nil), f.users...), nil
}

func (f *fakeRegistry) FetchNodes(context.Context) ([]inventory.Node, error) {
	if f.nodesErr != nil {
		return nil, f.nodesErr
	}
	return append([]inventory.Node(nil), f.nodes...), nil
}

// fakeRouter serves a fixed route list.
type fakeRouter struct {
	routes      []inventory.Route
	fetchErr    error
	validateErr error
	validated   int
}

func (f *fakeRouter) FetchRoutes(ctx context.Context) ([]inventory.Route, error) {
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	logging.Ctx(ctx).Debug().Int("routes", len(f.routes)).Msg("Routes served")
	return append([]inventory.Route(nil), f.routes...), nil
}

func (f *fakeRouter) Validate(context.Context) error {
	f.validated++
	return f.validateErr
}

// fakeRouters builds router clients by host and records which hosts were asked for.
type fakeRouters struct {
	byHost    map[string]*fakeRouter
	requested []string
}

func newFakeRouters(routes map[string][]inventory.Route) *fakeRouters {
	f := &fakeRouters{byHost: make(map[string]*fakeRouter)}
	for host, rs := range routes {
		f.byHost[host] = &fakeRouter{routes: rs}
	}
	return f
}

func (f *fakeRouters) factory(host string) (RouterClient, error) {
	if host == "" {
		return nil, errNoHost
	}
	f.requested = append(f.requested, host)
	if router, ok := f.byHost[host]; ok {
		return router, nil
	}
	router := &fakeRouter{}
	f.byHost[host] = router
	return router, nil
}

// scenario is one entry of testdata/scenarios.yaml.
type scenario struct {
	Name    string                       `yaml:"name"`
	Users   []string                     `yaml:"users"`
	Nodes   []inventory.Node             `yaml:"nodes"`
	Routes  map[string][]inventory.Route `yaml:"routes"`
	Options scenarioOptions              `yaml:"options"`
	Want    []records.DNSRecord          `yaml:"want"`
}

type scenarioOptions struct {
	Legacy          bool     `yaml:"legacy"`
	Suffixes        []string `yaml:"suffixes"`
	AllowedUsers    []string `yaml:"allowedUsers"`
	NodeBlocklist   []string `yaml:"nodeBlocklist"`
	Middlewares     []string `yaml:"middlewares"`
	DomainAllowlist string   `yaml:"domainAllowlist"`
	DomainBlocklist string   `yaml:"domainBlocklist"`
}

func (o scenarioOptions) build(t *testing.T) []Option {
	t.Helper()

	opts := []Option{
		WithLegacyNaming(o.Legacy),
		WithAllowedUsers(o.AllowedUsers),
		WithNodeBlocklist(o.NodeBlocklist),
		WithMiddlewares(o.Middlewares),
	}
	if len(o.Suffixes) > 0 {
		opts = append(opts, WithLegacySuffixes(o.Suffixes))
	}
	if o.DomainAllowlist != "" {
		opts = append(opts, WithDomainAllowlist(regexp.MustCompile(o.DomainAllowlist)))
	}
	if o.DomainBlocklist != "" {
		opts = append(opts, WithDomainBlocklist(regexp.MustCompile(o.DomainBlocklist)))
	}
	return opts
}

func (s scenario) registry() *fakeRegistry {
	users := make([]inventory.User, 0, len(s.Users))
	for _, name := range s.Users {
		users = append(users, inventory.User{Name: name})
	}
	return &fakeRegistry{users: users, nodes: s.Nodes}
}

func loadScenarios(t *testing.T) []scenario {
	t.Helper()

	data, err := os.ReadFile(filepath.Join("testdata", "scenarios.yaml"))
	require.NoError(t, err)

	var scenarios []scenario
	require.NoError(t, yaml.Unmarshal(data, &scenarios))
	require.NotEmpty(t, scenarios)
	return scenarios
}

// newTestReconciler builds a reconciler over fixed data.
func newTestReconciler(t *testing.T, reg Registry, routers *fakeRouters, opts ...Option) *Reconciler {
	t.Helper()
	opts = append([]Option{WithLogger(logging.NewNopLogger())}, opts...)
	r, err := New(reg, routers.factory, opts...)
	require.NoError(t, err)
	return r
}
