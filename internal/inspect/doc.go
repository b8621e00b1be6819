// Package inspect probes downloaded image files for their format,
// dimensions and EXIF metadata.
//
// Images published on a website can carry camera serial numbers or GPS
// coordinates. Inspector reports those so they can be stripped before the
// assets go live. Inspection only reads local files and never fails a run:
// problems are recorded in ImageInfo.Err.
package inspect
