// Package detect locates the moon in a photograph and fits its boundary.
//
// The pipeline runs in five steps:
//
//  1. Threshold analysis: a 256-bin luma histogram anchors an Otsu search
//     in the bright end of the range, producing a binary mask of candidate
//     pixels. The moon is reliably the brightest compact region in a night
//     sky photo, so the search is biased toward high luma before refining.
//
//  2. Connected components: two-pass 4-connectivity labeling with a
//     union-find arena collects per-blob area, bounding box, centroid, edge
//     pixels and circularity.
//
//  3. Candidate selection: among sufficiently round blobs, the one
//     maximizing area × circularity wins — large round blobs beat small
//     perfect circles and large irregular ones.
//
//  4. Circle fitting: Taubin's algebraic fit, with a centroid/mean-radius
//     fallback for near-singular systems and an optional RANSAC variant for
//     degraded inputs.
//
//  5. Confidence scoring and mask generation: a weighted composite score,
//     a feathered moon mask, a limb-ring mask, a padded crop rectangle and
//     the clipped-highlight fraction.
//
// Detection never fails with an error for image-content reasons: a Result
// carries a tagged failure reason (no candidate, degenerate fit, low
// confidence) so callers can branch on cause. Confidence below 0.5 is the
// contract line below which callers must fall back to conservative global
// edits or a manual crop.
package detect
