package searchservice

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/rrudduck/NuGetGallery/internal/domain"
	"github.com/rrudduck/NuGetGallery/internal/domain/gallery"
)

// packageDocument is one entry of the index response. Pointer fields are
// required and must be present; everything else defaults to its zero value.
type packageDocument struct {
	Key                 *int                  `json:"Key"`
	Version             *string               `json:"Version"`
	Created             *timestamp            `json:"Created"`
	LastUpdated         *timestamp            `json:"LastUpdated"`
	Published           *timestamp            `json:"Published"`
	Dependencies        *[]dependencyDocument `json:"Dependencies"`
	SupportedFrameworks *[]string             `json:"SupportedFrameworks"`

	LastEdited          *timestamp            `json:"LastEdited"`
	PackageRegistration *registrationDocument `json:"PackageRegistration"`

	NormalizedVersion         string `json:"NormalizedVersion"`
	Title                     string `json:"Title"`
	Description               string `json:"Description"`
	Summary                   string `json:"Summary"`
	ReleaseNotes              string `json:"ReleaseNotes"`
	Copyright                 string `json:"Copyright"`
	Authors                   string `json:"Authors"`
	Tags                      string `json:"Tags"`
	Language                  string `json:"Language"`
	IconURL                   string `json:"IconUrl"`
	ProjectURL                string `json:"ProjectUrl"`
	LicenseURL                string `json:"LicenseUrl"`
	LicenseNames              string `json:"LicenseNames"`
	LicenseReportURL          string `json:"LicenseReportUrl"`
	HideLicenseReport         bool   `json:"HideLicenseReport"`
	RequiresLicenseAcceptance bool   `json:"RequiresLicenseAcceptance"`
	MinClientVersion          string `json:"MinClientVersion"`
	Hash                      string `json:"Hash"`
	HashAlgorithm             string `json:"HashAlgorithm"`
	PackageFileSize           int64  `json:"PackageFileSize"`
	DownloadCount             int    `json:"DownloadCount"`
	FlattenedDependencies     string `json:"FlattenedDependencies"`
	IsLatest                  bool   `json:"IsLatest"`
	IsLatestStable            bool   `json:"IsLatestStable"`
}

type registrationDocument struct {
	Key           int      `json:"Key"`
	ID            string   `json:"Id"`
	Owners        []string `json:"Owners"`
	DownloadCount int      `json:"DownloadCount"`
}

type dependencyDocument struct {
	ID              string `json:"Id"`
	VersionSpec     string `json:"VersionSpec"`
	TargetFramework string `json:"TargetFramework"`
}

func missing(field string) error {
	return fmt.Errorf("%w: missing %s", domain.ErrInvalidDocument, field)
}

// toPackage maps the document onto the package projection.
func (d *packageDocument) toPackage() (gallery.Package, error) {
	switch {
	case d.Key == nil:
		return gallery.Package{}, missing("Key")
	case d.Version == nil:
		return gallery.Package{}, missing("Version")
	case d.Created == nil:
		return gallery.Package{}, missing("Created")
	case d.LastUpdated == nil:
		return gallery.Package{}, missing("LastUpdated")
	case d.Published == nil:
		return gallery.Package{}, missing("Published")
	case d.Dependencies == nil:
		return gallery.Package{}, missing("Dependencies")
	case d.SupportedFrameworks == nil:
		return gallery.Package{}, missing("SupportedFrameworks")
	}

	deps := make([]gallery.PackageDependency, len(*d.Dependencies))
	for i, dep := range *d.Dependencies {
		deps[i] = gallery.PackageDependency{
			ID:              dep.ID,
			VersionSpec:     dep.VersionSpec,
			TargetFramework: dep.TargetFramework,
		}
	}

	frameworks := make([]gallery.PackageFramework, len(*d.SupportedFrameworks))
	for i, fw := range *d.SupportedFrameworks {
		frameworks[i] = gallery.PackageFramework{TargetFramework: fw}
	}

	p := gallery.Package{
		Key:                       *d.Key,
		Version:                   *d.Version,
		NormalizedVersion:         d.NormalizedVersion,
		Title:                     d.Title,
		Description:               d.Description,
		Summary:                   d.Summary,
		ReleaseNotes:              d.ReleaseNotes,
		Copyright:                 d.Copyright,
		Authors:                   d.Authors,
		Tags:                      d.Tags,
		Language:                  d.Language,
		IconURL:                   d.IconURL,
		ProjectURL:                d.ProjectURL,
		LicenseURL:                d.LicenseURL,
		LicenseNames:              d.LicenseNames,
		LicenseReportURL:          d.LicenseReportURL,
		HideLicenseReport:         d.HideLicenseReport,
		RequiresLicenseAcceptance: d.RequiresLicenseAcceptance,
		MinClientVersion:          d.MinClientVersion,
		Hash:                      d.Hash,
		HashAlgorithm:             d.HashAlgorithm,
		PackageFileSize:           d.PackageFileSize,
		DownloadCount:             d.DownloadCount,
		FlattenedDependencies:     d.FlattenedDependencies,
		Dependencies:              deps,
		SupportedFrameworks:       frameworks,
		Created:                   d.Created.Time,
		LastUpdated:               d.LastUpdated.Time,
		Published:                 d.Published.Time,
		IsLatest:                  d.IsLatest,
		IsLatestStable:            d.IsLatestStable,
		IsPrerelease:              gallery.IsPrereleaseVersion(*d.Version),
	}
	if d.LastEdited != nil {
		t := d.LastEdited.Time
		p.LastEdited = &t
	}

	if reg := d.PackageRegistration; reg != nil {
		owners := make([]gallery.User, len(reg.Owners))
		for i, o := range reg.Owners {
			owners[i] = gallery.User{Username: o}
		}
		p.PackageRegistration = &gallery.PackageRegistration{
			Key:           reg.Key,
			ID:            reg.ID,
			Owners:        owners,
			DownloadCount: reg.DownloadCount,
		}
		p.PackageRegistrationKey = reg.Key
	}
	return p, nil
}

// timestampLayouts are tried in order. Zone-less values are read as UTC.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"1/2/2006 3:04:05 PM",
}

func parseTimestamp(s string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}

// timestamp decodes the date formats the index service emits.
type timestamp struct {
	time.Time
}

func (t *timestamp) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("timestamp: %w", err)
	}
	parsed, err := parseTimestamp(s)
	if err != nil {
		return err
	}
	t.Time = parsed
	return nil
}
