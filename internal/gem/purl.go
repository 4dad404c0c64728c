package gem

import (
	packageurl "github.com/package-url/packageurl-go"
)

// PackageURL returns the purl for this version of the named gem, e.g.
// "pkg:gem/nokogiri@1.16.0?platform=java". The platform qualifier is
// omitted for DefaultPlatform.
func (v Version) PackageURL(name string) string {
	var qualifiers packageurl.Qualifiers
	if v.platform != DefaultPlatform {
		qualifiers = packageurl.QualifiersFromMap(map[string]string{"platform": v.platform})
	}
	return packageurl.NewPackageURL(packageurl.TypeGem, "", name, v.number, qualifiers, "").ToString()
}
