// Package level supplies playfields to game sessions.
//
// A Level carries the integer-coded grid (0=empty, 1=wall, 2=player,
// 3=block, 4=goal) under the "objects" key, the same shape the
// /api/fields endpoint serves. The Manager reads level_<id>.json files from
// a directory, caches them, and falls back to built-in layouts for the two
// difficulty tiers: "easy" maps to level 1 and "normal" to level 2.
//
// Inspect and Reach are used by the levelcheck tool and to log data-quality
// warnings when a level is supplied.
package level
