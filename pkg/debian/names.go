package debian

import "strings"

// BaseName mangles a crate name into its Debian base form: lowercase with
// underscores replaced by dashes.
func BaseName(crate string) string {
	return strings.ToLower(strings.ReplaceAll(crate, "_", "-"))
}

// SourceName returns the Debian source package name for a crate.
func SourceName(crate string) string {
	return "rust-" + BaseName(crate)
}

// PkgName returns the binary package name for a crate's base library
// package.
func PkgName(crate string) string {
	return "librust-" + BaseName(crate) + "-dev"
}

// FeaturePkgName returns the binary package name for a feature metapackage.
func FeaturePkgName(crate, feature string) string {
	return "librust-" + BaseName(crate) + "+" + strings.ToLower(strings.ReplaceAll(feature, "_", "-")) + "-dev"
}

// featureDep renders a dependency on another feature package of the same
// crate, locked to the same binary version.
func featureDep(crate, feature string) string {
	if feature == "" {
		return PkgName(crate) + " (= ${binary:Version})"
	}
	return FeaturePkgName(crate, feature) + " (= ${binary:Version})"
}

// externalDep translates an opaque external-dependency token (a crate name)
// into the Debian package satisfying it.
func externalDep(token string) string {
	return "librust-" + BaseName(token) + "-dev"
}

// externalDeps translates a token list, preserving order.
func externalDeps(tokens []string) []string {
	out := make([]string, len(tokens))
	for i, t := range tokens {
		out[i] = externalDep(t)
	}
	return out
}

// addNocheck marks a build dependency as not needed when tests are skipped.
func addNocheck(dep string) string {
	return dep + " <!nocheck>"
}
