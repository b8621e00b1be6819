// Package extractor finds image URLs in an HTML document and filters out
// icon references.
//
// The Extractor parses the document once with golang.org/x/net/html and
// queries the tree with goquery. Four strategies run in a fixed order:
//
//  1. img (and picture > source) attributes: src, srcset, data-src,
//     data-lazy-src, data-srcset
//  2. url(...) references inside inline style attributes
//  3. anchor hrefs ending in an image extension
//  4. quoted absolute image URLs inside inline scripts
//
// An optional fifth strategy picks up src/href/data-src values that point
// into typical asset directories (images/, img/, gallery/, ...).
//
// The result is a set keyed by the exact URL string that keeps discovery
// order. data: URIs never appear in it.
//
// The Classifier is applied separately to the full candidate list.
package extractor
