// Package ir provides the descriptor and report types shared by every other
// workplan package.
//
// This package contains type definitions and their canonical encoding only.
// All other internal packages import ir; ir imports nothing internal. This
// keeps the report model the foundational layer with no circular
// dependencies.
//
// Key design constraints:
//   - TypeInfo equality and ordering use (StorageID, Mode) only; Name and
//     ThreadMobile are descriptive.
//   - SystemID equality uses TypeID only; Name is display text.
//   - Reports are immutable values once produced; the planner fills in
//     SystemInfo.Conflict on its own working copies.
//   - All JSON tags use snake_case and match the canonical encoding keys.
package ir
