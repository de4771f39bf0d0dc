// Package model describes the base objects manipulated by bandage.
//
// The object model for bandage is composed of:
//
//  Release trees:
//    A directory hierarchy representing one version of a product. A release tree
//    may carry a NAME file (identity token) and a VERSION file (version token).
//
//  Patches:
//    A self-describing archive holding the delta between two release trees:
//    NAME, VERSIONS ("<from> -> <to>"), a CHANGE.json manifest and the add/ and
//    replace/ payload trees.
//
//  Catalogs:
//    The list of published patches, one "<from> -> <to>||<locator>" entry per line.
//
//  Lineages:
//    The ordered list of published version tags for a product, newest first.
package model
