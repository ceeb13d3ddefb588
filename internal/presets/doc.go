// Package presets loads named encode configurations from presets.ini.
//
// The file carries a free-form header terminated by a `preset_start:` line;
// everything after it is INI, one section per preset. Optional keys take
// defaults (hwaccel none, container mp4, scale_flags lanczos, loudness
// targets -18/7/-2) while encoder, pixfmt and options are required. A single
// invalid section rejects the whole file. When the file is missing it is
// bootstrapped once, from the built-in presets or a configured command.
package presets
