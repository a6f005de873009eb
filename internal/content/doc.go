// Package content implements the collection store: ordered JSON collections
// of records (reviews, FAQs, gallery images, reels) with stable integer ids.
//
// Collections live in <data_dir>/<kind>.json. A sidecar <kind>.seq.json keeps
// the highest id ever issued so deleted ids are not handed out again.
package content
