// Package gallery holds the package read-model shared by the index-backed and
// catalog-backed search paths. Rendering code consumes it without knowing which
// path produced it.
package gallery

import (
	"strings"
	"time"
)

// User is a lightweight owner reference.
type User struct {
	Username string `json:"username"`
}

// PackageRegistration groups every version of a package id.
type PackageRegistration struct {
	Key           int    `json:"key"`
	ID            string `json:"id"`
	Owners        []User `json:"owners"`
	DownloadCount int    `json:"downloadCount"`
}

// PackageDependency is a single dependency entry of a package version.
type PackageDependency struct {
	ID              string `json:"id"`
	VersionSpec     string `json:"versionSpec"`
	TargetFramework string `json:"targetFramework"`
}

// PackageFramework is a framework the package version supports.
type PackageFramework struct {
	TargetFramework string `json:"targetFramework"`
}

// CuratedFeed is a named subset of the catalog. Only the name is referenced.
type CuratedFeed struct {
	Name string `json:"name"`
}

// Package is one package version.
//
// PackageRegistrationKey is 0 when PackageRegistration is nil; callers treat 0
// as "no registration".
type Package struct {
	Key                       int                  `json:"key"`
	PackageRegistrationKey    int                  `json:"packageRegistrationKey"`
	PackageRegistration       *PackageRegistration `json:"packageRegistration,omitempty"`
	Version                   string               `json:"version"`
	NormalizedVersion         string               `json:"normalizedVersion"`
	Title                     string               `json:"title"`
	Description               string               `json:"description"`
	Summary                   string               `json:"summary"`
	ReleaseNotes              string               `json:"releaseNotes"`
	Copyright                 string               `json:"copyright"`
	Authors                   string               `json:"authors"`
	Tags                      string               `json:"tags"`
	Language                  string               `json:"language"`
	IconURL                   string               `json:"iconUrl"`
	ProjectURL                string               `json:"projectUrl"`
	LicenseURL                string               `json:"licenseUrl"`
	LicenseNames              string               `json:"licenseNames"`
	LicenseReportURL          string               `json:"licenseReportUrl"`
	HideLicenseReport         bool                 `json:"hideLicenseReport"`
	RequiresLicenseAcceptance bool                 `json:"requiresLicenseAcceptance"`
	MinClientVersion          string               `json:"minClientVersion"`
	Hash                      string               `json:"hash"`
	HashAlgorithm             string               `json:"hashAlgorithm"`
	PackageFileSize           int64                `json:"packageFileSize"`
	DownloadCount             int                  `json:"downloadCount"`
	FlattenedDependencies     string               `json:"flattenedDependencies"`
	Dependencies              []PackageDependency  `json:"dependencies"`
	SupportedFrameworks       []PackageFramework   `json:"supportedFrameworks"`
	Created                   time.Time            `json:"created"`
	Published                 time.Time            `json:"published"`
	LastUpdated               time.Time            `json:"lastUpdated"`
	LastEdited                *time.Time           `json:"lastEdited,omitempty"`
	IsLatest                  bool                 `json:"isLatest"`
	IsLatestStable            bool                 `json:"isLatestStable"`
	IsPrerelease              bool                 `json:"isPrerelease"`
}

// ID returns the registration id, or "" when the package has no registration.
func (p *Package) ID() string {
	if p.PackageRegistration == nil {
		return ""
	}
	return p.PackageRegistration.ID
}

// OwnerNames returns the usernames of the registration owners.
func (p *Package) OwnerNames() []string {
	if p.PackageRegistration == nil {
		return nil
	}
	names := make([]string, len(p.PackageRegistration.Owners))
	for i, o := range p.PackageRegistration.Owners {
		names[i] = o.Username
	}
	return names
}

// IsPrereleaseVersion reports whether a SemVer string carries a prerelease label.
// Build metadata ("+...") is ignored.
func IsPrereleaseVersion(version string) bool {
	v, _, _ := strings.Cut(version, "+")
	return strings.Contains(v, "-")
}
