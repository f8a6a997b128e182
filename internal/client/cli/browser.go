package cli

import (
	"fmt"
	"io"
	"sync"

	"github.com/dmitrijs2005/fieldportal/internal/client/access"
	"github.com/dmitrijs2005/fieldportal/internal/client/guard"
	"github.com/dmitrijs2005/fieldportal/internal/client/routes"
	"github.com/dmitrijs2005/fieldportal/internal/logging"
)

// maxRedirects bounds how many redirects one visit follows before giving up.
const maxRedirects = 8

// browser keeps track of the page the user is on. Each visit gets its own
// guard; redirects from the current page's guard turn into new visits.
type browser struct {
	sources guard.Sources
	paths   access.Paths
	out     io.Writer
	logger  logging.Logger

	mu      sync.Mutex
	page    *page
	hops    int
	history []string
}

func newBrowser(sources guard.Sources, paths access.Paths, out io.Writer, logger logging.Logger) *browser {
	return &browser{sources: sources, paths: paths, out: out, logger: logger}
}

// Open visits path on the user's behalf.
func (b *browser) Open(path string) {
	b.visit(path, true)
}

func (b *browser) visit(path string, byUser bool) {
	route := routes.Lookup(path)

	b.mu.Lock()
	if byUser {
		b.hops = 0
	}
	old := b.page
	p := &page{b: b, path: path, route: route}
	p.guard = guard.New(b.sources, p, p, route.Requirement, path, b.paths, b.logger)
	b.page = p
	b.history = append(b.history, path)
	b.mu.Unlock()

	if old != nil {
		old.guard.Close()
	}
	p.guard.Start()
}

// Current returns the path of the page being shown, query included.
func (b *browser) Current() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.page == nil {
		return ""
	}
	return b.page.path
}

// History returns every path visited, redirects included.
func (b *browser) History() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.history...)
}

func (b *browser) Close() {
	b.mu.Lock()
	p := b.page
	b.page = nil
	b.mu.Unlock()

	if p != nil {
		p.guard.Close()
	}
}

// page is one visit. It is the guard's Navigator and View; calls from a
// page that is no longer current are ignored.
type page struct {
	b     *browser
	path  string
	route routes.Route
	guard *guard.Guard
}

func (p *page) current() bool {
	p.b.mu.Lock()
	defer p.b.mu.Unlock()
	return p.b.page == p
}

func (p *page) Navigate(path string) {
	b := p.b

	b.mu.Lock()
	if b.page != p {
		b.mu.Unlock()
		return
	}
	b.hops++
	hops := b.hops
	b.mu.Unlock()

	if hops > maxRedirects {
		fmt.Fprintf(b.out, "Too many redirects while opening %s\n", p.path)
		p.guard.Close()
		return
	}
	fmt.Fprintf(b.out, "-> %s\n", path)
	b.visit(path, false)
}

func (p *page) ShowLoading() {
	if p.current() {
		fmt.Fprintf(p.b.out, "Loading %s ...\n", p.path)
	}
}

func (p *page) ShowContent() {
	if !p.current() {
		return
	}
	p.b.mu.Lock()
	p.b.hops = 0
	p.b.mu.Unlock()

	title := p.route.Title
	if title == "" {
		title = "Page"
	}
	fmt.Fprintf(p.b.out, "[%s] %s\n", p.path, title)
}

func (p *page) ShowError(message string) {
	if p.current() {
		fmt.Fprintf(p.b.out, "! %s\n", message)
	}
}
