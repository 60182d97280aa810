// Package dynfile implements read-only access to the dynamic-linking
// information embedded in ELF images.
//
// Open maps an image into memory, walks its loadable program headers to
// build a virtual-address translation table, and decodes the dynamic
// array (the ordered tag/value pairs from the PT_DYNAMIC segment) into a
// DynamicTable. The decoded table answers structural questions -- which
// entries are present, in what order -- without any further I/O.
//
// String-valued attributes (needed libraries, run-path, soname) are
// resolved lazily: the dynamic string table is located and bound on the
// first string lookup, not at decode time. Entries in the dynamic array
// may appear in any order except for the DT_NULL terminator and the
// relative order of DT_NEEDED entries, so the address and size of the
// string table may be declared after the entries that reference it;
// deferring resolution until the whole array has been scanned makes that
// ordering irrelevant.
//
// The package decodes the dynamic array only. Symbol tables, relocations
// and version definitions are recognized by tag but not interpreted.
package dynfile
