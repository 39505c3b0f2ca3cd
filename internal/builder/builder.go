package builder

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/dgallion1/cpctree/internal/scheme"
	"github.com/dgallion1/cpctree/internal/tree"
	"golang.org/x/sync/errgroup"
)

var (
	// ErrDatasetNotFound is returned when the root document does not exist.
	ErrDatasetNotFound = errors.New("dataset not found")
	// ErrRootMalformed is returned when the root document cannot be decoded.
	ErrRootMalformed = errors.New("root document malformed")
)

// Builder turns a scheme directory into a tree.Forest.
type Builder struct {
	dir     string
	log     *slog.Logger
	workers int

	stats counters
}

// Option configures a Builder.
type Option func(*Builder)

// WithLogger sets the logger used for diagnostics about skipped fragments.
func WithLogger(log *slog.Logger) Option {
	return func(b *Builder) {
		if log != nil {
			b.log = log
		}
	}
}

// WithWorkers builds up to n top-level subtrees concurrently. Values below 2
// keep the build sequential.
func WithWorkers(n int) Option {
	return func(b *Builder) {
		if n > 0 {
			b.workers = n
		}
	}
}

// New returns a Builder reading from dir.
func New(dir string, opts ...Option) *Builder {
	b := &Builder{
		dir:     dir,
		log:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		workers: 1,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Dir returns the scheme directory.
func (b *Builder) Dir() string {
	return b.dir
}

// Build parses the root document and every item reachable from it. Only a
// missing or undecodable root document is an error; broken fragments are
// skipped.
func (b *Builder) Build(ctx context.Context) (tree.Forest, error) {
	rootPath := filepath.Join(b.dir, scheme.RootFile)
	doc, err := scheme.ReadFile(rootPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s: %w", ErrDatasetNotFound, rootPath, err)
		}
		return nil, fmt.Errorf("%w: %w", ErrRootMalformed, err)
	}

	items := doc.Items()
	b.log.Debug("parsed root document", "path", rootPath, "root", doc.Name(), "items", len(items))

	var nodes []*tree.RawNode
	if b.workers > 1 {
		nodes, err = b.parseConcurrent(ctx, items)
	} else {
		nodes, err = b.parseSequential(ctx, items)
	}
	if err != nil {
		return nil, err
	}

	// Merge in document order so a duplicate symbol keeps its last occurrence.
	forest := make(tree.Forest, len(items))
	for i, item := range items {
		if nodes[i] == nil {
			continue
		}
		symbol, _ := item.Symbol()
		forest[symbol] = nodes[i]
	}
	return forest, nil
}

// parseSequential returns one node per item; items without a symbol leave a
// nil slot.
func (b *Builder) parseSequential(ctx context.Context, items []*scheme.Item) ([]*tree.RawNode, error) {
	nodes := make([]*tree.RawNode, len(items))
	for i, item := range items {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if _, ok := b.symbolOf(item); !ok {
			continue
		}
		nodes[i] = b.parseItem(item, nil)
	}
	return nodes, nil
}

func (b *Builder) parseConcurrent(ctx context.Context, items []*scheme.Item) ([]*tree.RawNode, error) {
	nodes := make([]*tree.RawNode, len(items))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.workers)

	for i, item := range items {
		if _, ok := b.symbolOf(item); !ok {
			continue
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			nodes[i] = b.parseItem(item, nil)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return nodes, nil
}

// ParseItem converts one classification item, and everything beneath it, to
// a RawNode.
func (b *Builder) ParseItem(item *scheme.Item) *tree.RawNode {
	return b.parseItem(item, nil)
}

// linkChain is the stack of fragment files being expanded above an item.
type linkChain struct {
	path   string
	parent *linkChain
}

func (c *linkChain) contains(path string) bool {
	for ; c != nil; c = c.parent {
		if c.path == path {
			return true
		}
	}
	return false
}

func (b *Builder) parseItem(item *scheme.Item, chain *linkChain) *tree.RawNode {
	b.stats.itemsParsed.Add(1)

	node := &tree.RawNode{}
	if title := scheme.Title(item); title != "" {
		node.Title = title
	}

	var children tree.Forest
	if item.LinkFile != "" {
		children = b.linkedChildren(item.LinkFile, chain)
	} else {
		children = b.children(item.Items, chain)
	}
	if len(children) > 0 {
		node.Children = children
	}
	return node
}

func (b *Builder) children(items []*scheme.Item, chain *linkChain) tree.Forest {
	children := make(tree.Forest, len(items))
	for _, sub := range items {
		symbol, ok := b.symbolOf(sub)
		if !ok {
			continue
		}
		children[symbol] = b.parseItem(sub, chain)
	}
	return children
}

// linkedChildren reads the children of a node that lives in a fragment file.
// The fragment restates the linking node as a wrapper item; only the
// wrapper's children are used.
func (b *Builder) linkedChildren(linkFile string, chain *linkChain) tree.Forest {
	path := filepath.Join(b.dir, linkFile)
	log := b.log.With("link_file", linkFile)

	if chain.contains(path) {
		b.stats.linkCycles.Add(1)
		log.Warn("skipping linked file already being expanded", "path", path)
		return nil
	}

	if _, err := os.Stat(path); err != nil {
		b.stats.linkedMissing.Add(1)
		log.Debug("linked file not found", "path", path, "error", err)
		return nil
	}

	doc, err := scheme.ReadFile(path)
	if err != nil {
		b.stats.linkedMalformed.Add(1)
		log.Warn("skipping malformed linked file", "path", path, "error", err)
		return nil
	}
	b.stats.linkedRead.Add(1)

	wrapper := doc.Wrapper()
	if wrapper == nil {
		log.Debug("linked file has no classification item", "path", path)
		return nil
	}
	return b.children(wrapper.Items, &linkChain{path: path, parent: chain})
}

func (b *Builder) symbolOf(item *scheme.Item) (string, bool) {
	symbol, ok := item.Symbol()
	if !ok {
		b.stats.itemsSkipped.Add(1)
	}
	return symbol, ok
}

type counters struct {
	itemsParsed     atomic.Int64
	itemsSkipped    atomic.Int64
	linkedRead      atomic.Int64
	linkedMissing   atomic.Int64
	linkedMalformed atomic.Int64
	linkCycles      atomic.Int64
}

// Stats counts what a Builder has processed so far.
type Stats struct {
	ItemsParsed     int64 `json:"items_parsed"`
	ItemsSkipped    int64 `json:"items_skipped"`
	LinkedRead      int64 `json:"linked_read"`
	LinkedMissing   int64 `json:"linked_missing"`
	LinkedMalformed int64 `json:"linked_malformed"`
	LinkCycles      int64 `json:"link_cycles"`
}

// Stats returns a snapshot of the builder's counters. Counters accumulate
// across calls to Build.
func (b *Builder) Stats() Stats {
	return Stats{
		ItemsParsed:     b.stats.itemsParsed.Load(),
		ItemsSkipped:    b.stats.itemsSkipped.Load(),
		LinkedRead:      b.stats.linkedRead.Load(),
		LinkedMissing:   b.stats.linkedMissing.Load(),
		LinkedMalformed: b.stats.linkedMalformed.Load(),
		LinkCycles:      b.stats.linkCycles.Load(),
	}
}
