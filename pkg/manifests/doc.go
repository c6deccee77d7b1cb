/*
Package manifests reads directories of values files into a
configuration tree, and writes trees back out.

Each file becomes one entity, named after the file without its
extension. YAML (`.yaml`, `.yml`) and JSON (`.json`) files are read;
others are ignored. A whole tree can also be kept as a single JSON
document, a snapshot, to compare against the next time.
*/
package manifests
