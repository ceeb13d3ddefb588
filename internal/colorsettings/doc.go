// Package colorsettings decides how the source colorspace and range are
// interpreted. Sources that declare a colorspace are taken at their word;
// otherwise the operator chooses between auto detection, BT.601-6-625 and
// BT.709, and for a non-auto space between auto, TV and PC range. Explicit
// choices yield a colorspace conversion filter targeting BT.709.
package colorsettings
