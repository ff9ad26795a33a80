// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

//go:build !linux

package logforward

func newPlatformPoller() (poller, error) {
	return newChanPoller(), nil
}
