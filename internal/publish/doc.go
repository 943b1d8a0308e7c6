// Package publish makes composite volumes visible to consumers.
//
// Two publishers are provided:
//
//   - Table keeps published volumes in an in-memory, name-indexed table.
//     Publications live as long as the process.
//   - PoolPublisher writes a descriptor image for each volume into a libvirt
//     storage pool, named after the volume with an ".iso" suffix.
//
// Both reject a name that is already published. Unpublishing a name that is
// not published is an error.
package publish
