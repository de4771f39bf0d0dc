package core

import (
	"net/url"
	"strings"

	"github.com/oneconcern/bandage/pkg/core/status"
)

const (
	// CatalogResource is the name of the patch catalog published on a remote
	CatalogResource = "BANDAGE_PATCHES"

	// LineageResource is the name of the lineage list published on a remote
	LineageResource = "BANDAGE_LINEAGE"

	githubHost = "github.com"
)

// Remote is the publishing base of a patch catalog
type Remote struct {
	addr string
	base *url.URL
}

// ParseRemote recognizes the shape of a remote catalog address.
//
// A GitHub release tag page (https://github.com/{owner}/{repo}/releases/tag/{tag})
// publishes its resources as release assets. Any other http(s) address is a
// base URL the resource names are appended to.
func ParseRemote(addr string) (Remote, error) {
	u, err := url.Parse(strings.TrimSpace(addr))
	if err != nil {
		return Remote{}, status.ErrUnsupportedScheme.Wrap(err)
	}
	switch u.Scheme {
	case "http", "https":
	default:
		return Remote{}, status.ErrUnsupportedScheme.WrapMessage("%q: only http and https remotes are supported", addr)
	}

	base := *u
	base.RawQuery = ""
	base.Fragment = ""
	base.RawPath = ""

	if strings.EqualFold(u.Hostname(), githubHost) {
		parts := strings.Split(strings.Trim(u.Path, "/"), "/")
		if len(parts) != 5 || parts[2] != "releases" || parts[3] != "tag" || parts[0] == "" || parts[1] == "" || parts[4] == "" {
			return Remote{}, status.ErrUnsupportedRemote.WrapMessage(
				"%q: expected https://%s/{owner}/{repo}/releases/tag/{tag}", addr, githubHost)
		}
		base.Path = "/" + strings.Join([]string{parts[0], parts[1], "releases", "download", parts[4]}, "/") + "/"
		return Remote{addr: addr, base: &base}, nil
	}

	if !strings.HasSuffix(base.Path, "/") {
		base.Path += "/"
	}
	return Remote{addr: addr, base: &base}, nil
}

// String yields the address the remote was parsed from
func (r Remote) String() string {
	return r.addr
}

// Base is the URL catalog locators are resolved against
func (r Remote) Base() string {
	return r.base.String()
}

// CatalogURL locates the patch catalog
func (r Remote) CatalogURL() string {
	return r.base.JoinPath(CatalogResource).String()
}

// LineageURL locates the lineage list
func (r Remote) LineageURL() string {
	return r.base.JoinPath(LineageResource).String()
}

// Resolve a catalog locator.
//
// A locator with a URI scheme (https://..., gs://..., urn:...) is used verbatim, otherwise
// it is relative to the publishing base. A single letter before the colon is a Windows
// drive, not a scheme.
func (r Remote) Resolve(loc string) string {
	if hasScheme(loc) {
		return loc
	}
	rel := strings.TrimLeft(strings.ReplaceAll(loc, `\`, "/"), "/")
	return r.base.JoinPath(strings.Split(rel, "/")...).String()
}

func hasScheme(loc string) bool {
	u, err := url.Parse(loc)
	if err != nil {
		return false
	}
	return len(u.Scheme) > 1
}
