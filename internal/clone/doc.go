// Package clone copies one metadata object of a configuration export (a
// directory of XML files) into a new object with a fresh identity.
//
// A run has three phases applied in order: Cleanup removes every trace of a
// previous clone, CloneDefinition copies and relabels the donor's definition
// file, and Integrate registers the clone in Configuration.xml and
// ConfigDumpInfo.xml. Verify checks the result. Runner strings the phases
// together; DryRun lets them execute against an in-memory copy.
//
// The files are edited as text with line- and block-anchored patterns, never
// parsed as XML, so everything outside the edited lines keeps its formatting.
package clone
