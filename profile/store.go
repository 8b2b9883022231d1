// Package profile loads named submission templates from YAML documents so
// recurring task shapes can be kept out of code and command lines.
package profile

import (
	"context"
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/viant/afs"
	"github.com/viant/afs/storage"
	"github.com/viant/afs/url"
	"github.com/viant/toolbox"
	"gopkg.in/yaml.v3"
)

// Store loads submission profiles from a base URL, any scheme afs
// understands (file, embed, cloud storage).
type Store struct {
	fs      afs.Service
	baseURL string
	options []storage.Option
}

// New creates a profile store rooted at baseURL.
func New(fs afs.Service, baseURL string, options ...storage.Option) *Store {
	if fs == nil {
		fs = afs.New()
	}
	return &Store{fs: fs, baseURL: baseURL, options: options}
}

// Load reads the named profile and assigns its values onto target. Fields
// the caller sets afterwards override profile values. The name may also be
// a full URL to a document outside the store.
func (s *Store) Load(ctx context.Context, name string, target interface{}) error {
	data, err := s.fs.DownloadWithURL(ctx, s.profileURL(name), s.options...)
	if err != nil {
		return fmt.Errorf("failed to load profile %v: %w", name, err)
	}
	values := map[string]interface{}{}
	if err := yaml.Unmarshal(data, &values); err != nil {
		return fmt.Errorf("failed to parse profile %v: %w", name, err)
	}
	if err := toolbox.DefaultConverter.AssignConverted(target, values); err != nil {
		return fmt.Errorf("failed to apply profile %v: %w", name, err)
	}
	return nil
}

// Names returns the available profile names, sorted.
func (s *Store) Names(ctx context.Context) ([]string, error) {
	objects, err := s.fs.List(ctx, s.baseURL, s.options...)
	if err != nil {
		return nil, fmt.Errorf("failed to list profiles at %v: %w", s.baseURL, err)
	}
	var names []string
	for _, object := range objects {
		if object.IsDir() {
			continue
		}
		ext := path.Ext(object.Name())
		if ext != ".yaml" && ext != ".yml" {
			continue
		}
		names = append(names, strings.TrimSuffix(object.Name(), ext))
	}
	sort.Strings(names)
	return names, nil
}

func (s *Store) profileURL(name string) string {
	if strings.Contains(name, "://") {
		return name
	}
	if ext := path.Ext(name); ext != ".yaml" && ext != ".yml" {
		name += ".yaml"
	}
	return url.Join(s.baseURL, name)
}
