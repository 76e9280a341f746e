package driver

import (
	"encoding/json"
	"fmt"
	"os"

	"weft/internal/markup"
	"weft/internal/version"
)

// ManifestName is the build manifest written at the root of the output
// directory.
const ManifestName = "weft-manifest.json"

// BuildManifest lists the outputs of one build. Files come dependencies
// first, so a loader can import them in order.
type BuildManifest struct {
	Version    string              `json:"version"`
	Runtime    string              `json:"runtime"`
	Files      []ManifestFile      `json:"files"`
	Components []ManifestComponent `json:"components"`
}

type ManifestFile struct {
	Source  string   `json:"source"`
	Server  string   `json:"server"`
	Client  string   `json:"client,omitempty"`
	Hash    string   `json:"hash,omitempty"`
	Imports []string `json:"imports,omitempty"`
}

// ManifestComponent is one interactive component: the client module that
// registers it and the initializer it exports.
type ManifestComponent struct {
	Name   string `json:"name"`
	Source string `json:"source"`
	Module string `json:"module"`
	Init   string `json:"init"`
}

func buildManifest(runtime string, files []*FileResult) BuildManifest {
	man := BuildManifest{
		Version:    version.Version,
		Runtime:    runtime,
		Files:      make([]ManifestFile, 0, len(files)),
		Components: []ManifestComponent{},
	}
	rels := make(map[string]string, len(files))
	for _, f := range files {
		rels[f.Meta.Path] = f.Meta.Rel
	}
	var zero [32]byte
	for _, f := range files {
		rel := outputRel(f.Meta.Rel)
		mf := ManifestFile{
			Source: f.Meta.Rel,
			Server: markup.OutputPath(rel, markup.ServerSuffix),
		}
		if f.Meta.FileHash != zero {
			mf.Hash = f.Meta.FileHash.Short()
		}
		for _, imp := range f.Meta.Imports {
			if r, ok := rels[imp.Path]; ok {
				mf.Imports = append(mf.Imports, r)
			}
		}
		if f.Client != nil {
			mf.Client = markup.OutputPath(rel, markup.ClientSuffix)
			names := markup.NewInitNames(f.Meta.Path, f.Records)
			for _, rec := range f.Records {
				if !rec.Interactive() {
					continue
				}
				man.Components = append(man.Components, ManifestComponent{
					Name:   rec.Name,
					Source: f.Meta.Rel,
					Module: mf.Client,
					Init:   names.Name(rec),
				})
			}
		}
		man.Files = append(man.Files, mf)
	}
	return man
}

// Encode renders the manifest as indented JSON.
func (m BuildManifest) Encode() ([]byte, error) {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// Interactive returns the set of component names with an initializer.
func (m BuildManifest) Interactive() map[string]bool {
	out := make(map[string]bool, len(m.Components))
	for _, c := range m.Components {
		out[c.Name] = true
	}
	return out
}

// ReadManifest loads a manifest written by a previous build.
func ReadManifest(path string) (BuildManifest, error) {
	var m BuildManifest
	data, err := os.ReadFile(path)
	if err != nil {
		return m, err
	}
	if err := json.Unmarshal(data, &m); err != nil {
		return m, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}
