// Package segy decodes SEG-Y files: the EBCDIC text header, the binary and trace
// header field tables, and trace samples.  It also derives the survey grid of a
// post-stack file so its traces can be imported into a chunked volume.
package segy
