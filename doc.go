// Package roiq provides a pure Go encoder and decoder for the Q
// ("qoif") and R ("roif") lossless image formats.
//
// Both are per-pixel delta codecs: each pixel is encoded relative to
// the one before it, with an opcode alphabet chosen to keep small
// deltas and repeated runs cheap. Q is the baseline format and keeps a
// 64-entry running color index; R drops the index in favor of a wider
// opcode alphabet and an optional mega-LUT accelerator that trades
// memory for the scalar encoder's branchy range classification.
//
// The package supports:
//   - One-shot buffer encode/decode (EncodeBuffer, DecodeBuffer)
//   - Chunked streaming encode/decode (Encoder, Decoder)
//   - image.Image integration (Decode, DecodeConfig, Encode) via
//     image.RegisterFormat
//   - A pure-Go lane-batched vector path alongside the scalar encoder
//   - An 80MiB mega-LUT accelerator for the R variant
//
// Basic usage for decoding:
//
//	img, err := roiq.Decode(reader)
//
// Basic usage for encoding:
//
//	err := roiq.Encode(writer, img, roiq.Options{Variant: roiq.VariantR})
package roiq
