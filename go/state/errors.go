// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package state

import "github.com/emberchain/ember/go/ember"

// Sentinel faults raised by the journaled state. Parametric faults (a
// database read failing) are instead reported as *ember.DatabaseError,
// which carries the underlying cause.
const (
	errAccountNotFound ember.ConstError = "account does not exist"
	errSnapshotUnknown ember.ConstError = "snapshot does not belong to this state"
)
