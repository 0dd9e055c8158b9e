package modrinth

// Side describes whether a mod is needed on the client or server side.
// The registry reports one of "required", "optional", "unsupported" or
// "unknown"; anything else is treated as unknown.
type Side string

const (
	SideRequired    Side = "required"
	SideOptional    Side = "optional"
	SideUnsupported Side = "unsupported"
	SideUnknown     Side = "unknown"
)

// DepType classifies a dependency declared by a version.
type DepType string

const (
	DepRequired     DepType = "required"
	DepOptional     DepType = "optional"
	DepIncompatible DepType = "incompatible"
	DepEmbedded     DepType = "embedded"
)

// Project holds the fields read from GET /project/{id|slug}.
// Unknown response fields are ignored by decoding.
type Project struct {
	ID         string `json:"id"`
	Slug       string `json:"slug"`
	Title      string `json:"title"`
	ClientSide Side   `json:"client_side"`
	ServerSide Side   `json:"server_side"`
}

// PageURL returns the mod's page on the registry website.
func (p *Project) PageURL() string {
	return "https://modrinth.com/mod/" + p.Slug
}

// Version holds the fields read from the version list and
// GET /version/{id} responses.
type Version struct {
	ID            string   `json:"id"`
	ProjectID     string   `json:"project_id"`
	VersionNumber string   `json:"version_number"`
	GameVersions  []string `json:"game_versions"`
	Loaders       []string `json:"loaders"`
	Dependencies  []RawDep `json:"dependencies"`
	Files         []File   `json:"files"`
}

// Supports reports whether the version lists both the game version and
// the loader. The server-side list filter is an optimization only; this
// local check is the actual selection rule.
func (v *Version) Supports(gameVersion, loader string) bool {
	return contains(v.GameVersions, gameVersion) && contains(v.Loaders, loader)
}

func contains(list []string, s string) bool {
	for _, x := range list {
		if x == s {
			return true
		}
	}
	return false
}

// RawDep is a dependency descriptor as the registry reports it. Either
// VersionID or ProjectID may be set; descriptors with neither carry no
// resolvable target and are dropped by the caller.
type RawDep struct {
	VersionID      string  `json:"version_id"`
	ProjectID      string  `json:"project_id"`
	FileName       string  `json:"file_name"`
	DependencyType DepType `json:"dependency_type"`
}

// File describes a downloadable artifact of a version.
type File struct {
	URL      string     `json:"url"`
	Filename string     `json:"filename"`
	Size     int64      `json:"size"`
	Primary  bool       `json:"primary"`
	Hashes   FileHashes `json:"hashes"`
}

// FileHashes carries the registry-declared content digests (lower-case hex).
type FileHashes struct {
	SHA512 string `json:"sha512"`
	SHA1   string `json:"sha1"`
}
