// Copyright © 2018 One Concern

// Package core implements the release patching pipeline.
//
// Weave compares two release trees and packages their difference as a patch
// archive. Apply validates a patch archive against a target installation,
// then mutates the target to match the new release. Supply walks a published
// lineage and patch catalog to find a patch that advances a client toward the
// latest release.
package core
