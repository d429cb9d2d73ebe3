// Package stamp composes the visual signature stamp onto the last page of a PDF.
//
// The work is split in three steps:
//
//   - Layout.Render turns the signer facts of a document into a Block: the
//     position, size and text lines of the stamp. It is pure and does no I/O.
//   - PDFCPUMerger describes a Block as a pdfcpu JSON page, renders it with
//     github.com/pdfcpu/pdfcpu and overlays it on the last page of the
//     original. All other pages pass through untouched and the page count
//     never changes.
//   - Compositor fetches the current revision from revision storage, merges
//     the stamp and stores the result under a new key. The current revision is
//     never modified.
//
// The stamp is cumulative: the lawyer revision shows the lawyer sub-block and
// the final revision shows both. The block has an opaque background and grows
// upwards from a fixed bottom edge, so the final stamp covers the lawyer stamp
// underneath it completely.
//
// Text is set in the Go fonts (golang.org/x/image/font/gofont), embedded as
// TrueType subsets, so Cyrillic signer names print as written.
package stamp
