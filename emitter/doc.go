// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

// Package emitter provides two poolable resources that reclaim themselves.
//
// A [Voice] plays a [Clip] and, when taken from a [respool.Pool], returns to
// it once the clip's playback duration has elapsed. A [Burst] emits until it
// is stopped and returns to its pool on that signal. Both implement
// [respool.Lifecycle], [respool.Activator] and [respool.Destroyer], and are
// built by [VoiceTemplate] and [BurstTemplate] respectively.
package emitter
