/*
Package vds provides the types, constants and functions shared by every other
package of seisvds: axis descriptors and the coordinate resolver, ordinal boxes,
sample buffers, the store layout, chunk serialization and logging.

It has no dependencies on the storage engines or the volume session, so any
package in the module can use it.
*/
package vds
