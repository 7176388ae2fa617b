// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package ember

// GetStorageStatus obtains the status code to be returned by a
// TransactionContext implementation when mutating a storage slot with the
// given original (=committed), current, and new value. See t.ly/b5HPf for
// the definition of the return status.
func GetStorageStatus(original, current, new Word) StorageStatus {
	if current == new {
		return StorageAssigned
	}

	var zero Word
	originalZero := original == zero
	currentZero := current == zero
	newZero := new == zero
	currentIsOriginal := current == original
	newIsOriginal := new == original

	switch {
	case originalZero && currentZero && !newZero: // 0 -> 0 -> Z
		return StorageAdded
	case !originalZero && currentIsOriginal && newZero: // X -> X -> 0
		return StorageDeleted
	case !originalZero && currentIsOriginal && !newZero && !newIsOriginal: // X -> X -> Z
		return StorageModified
	case !originalZero && currentZero && !newZero && !newIsOriginal: // X -> 0 -> Z
		return StorageDeletedAdded
	case !originalZero && !currentIsOriginal && !currentZero && newZero: // X -> Y -> 0
		return StorageModifiedDeleted
	case !originalZero && currentZero && newIsOriginal: // X -> 0 -> X
		return StorageDeletedRestored
	case originalZero && !currentZero && newZero: // 0 -> Y -> 0
		return StorageAddedDeleted
	case !originalZero && !currentIsOriginal && !currentZero && newIsOriginal: // X -> Y -> X
		return StorageModifiedRestored
	default:
		return StorageAssigned
	}
}
