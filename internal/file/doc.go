// Package file stores uploads on disk under generated keys and keeps
// their metadata in the FileInfo table. The size limit is enforced
// while streaming so oversized uploads never land whole on disk.
package file
