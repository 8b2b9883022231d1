// Package model contains the data model of the Volcengine ML platform as
// used by this client.
//
// The wire objects of the custom-task API live in the `task` sub-package
// (submission form, status and lifecycle states).  The `capacity`
// sub-package describes resource queues and flavors together with the
// headroom arithmetic behind queue selection, `image` covers container
// image repositories and `vepfs` the shared file-system mounts.  The root
// model package simply groups those building blocks; it defines no types of
// its own.
package model
