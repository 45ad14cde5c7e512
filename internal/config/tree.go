package config

import (
	stderrors "errors"
	"fmt"

	"github.com/vango-dev/routestate/internal/errors"
	"github.com/vango-dev/routestate/pkg/route"
	"github.com/vango-dev/routestate/pkg/store"
)

// BuildTree builds the route tree described by c.Tree and imports
// c.InitialURL into it. Definition problems are returned as coded errors
// instead of the builder's panics.
func (c *Config) BuildTree() (root *route.Node, err error) {
	defer func() {
		if r := recover(); r != nil {
			root = nil
			if rerr, ok := r.(*errors.RouteError); ok {
				err = rerr
				return
			}
			err = errors.New("R105").WithDetail(fmt.Sprint(r))
		}
	}()

	root = c.Tree.build()
	if err := route.Validate(root); err != nil {
		return nil, err
	}
	root.SetURL(c.InitialURL)
	return root, nil
}

func (d *TreeDef) build() *route.Node {
	n := route.New(d.Name)
	if d.CapturePath {
		n.CapturePath()
	}
	for _, p := range d.Params {
		opts := route.ParamOptions{VariableName: p.Variable, QueryParamName: p.Query}
		switch p.Kind {
		case KindBoolean:
			n.BooleanQueryParam(opts)
		case KindString:
			n.StringQueryParam(opts)
		default:
			panic(errors.New("R101").
				WithDetail(fmt.Sprintf("Parameter %q on route %q has kind %q", p.Variable, d.Name, p.Kind)))
		}
	}
	for i := range d.Children {
		n.Add(d.Children[i].build())
	}
	return n
}

// OpenStore creates the snapshot store described by c.Store.
func (c *Config) OpenStore() (store.Store, error) {
	switch c.Store.Kind {
	case StoreMemory, "":
		return store.NewMemoryStore(), nil

	case StoreFile:
		fs, err := store.NewFileStore(c.StoreDir())
		if err != nil {
			return nil, errors.New("R122").Wrap(err)
		}
		return fs, nil

	case StoreS3:
		if c.Store.Bucket == "" || c.Store.Region == "" {
			return nil, errors.New("R122").
				WithDetail("The s3 store needs a bucket and a region")
		}
		client := store.NewS3Client(store.S3Options{
			Region:       c.Store.Region,
			Endpoint:     c.Store.Endpoint,
			UsePathStyle: c.Store.UsePathStyle,
		})
		return store.NewS3Store(client, c.Store.Bucket, c.Store.Prefix), nil

	default:
		return nil, errors.New("R103").
			WithDetail(fmt.Sprintf("Unknown store kind %q", c.Store.Kind))
	}
}

// IsConfigError reports whether err is a coded configuration or routing
// error, as opposed to an I/O failure.
func IsConfigError(err error) bool {
	var rerr *errors.RouteError
	if !stderrors.As(err, &rerr) {
		return false
	}
	return rerr.Category == errors.CategoryConfig || rerr.Category == errors.CategoryRouting
}
