// Package core holds the contracts shared by the executor and the accessor:
// the result envelope, configuration, error taxonomy, logging and metrics
// helpers, localization, and the JSON codec. It must not depend on the
// transport or store packages.
package core
