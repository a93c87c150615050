package embed

import "embed"

// Scaffold holds the starter site written by `bijou init`. Files ending in
// .tmpl are rendered with the init variables and lose the suffix.
//
//go:embed all:scaffold
var Scaffold embed.FS
