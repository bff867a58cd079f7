package unusedimport

import (
	"context"

	"implint/internal/rule"
	"implint/internal/semantic"
	"implint/internal/syntax"
)

// maxRescanTokens bounds the forward scan after a point query answers
// with the wrong symbol. Index positions are sometimes off by a token
// (operators, compound expressions); three tokens of slack recovers the
// common cases without turning a dead reference into a full file scan.
const maxRescanTokens = 3

// resolveModules answers "which modules does this file actually use" by
// resolving every collected reference through the service, one blocking
// query at a time. Queries stay sequential: the service may sit on
// compiler state that is not safe to hit concurrently.
//
// A reference that cannot be resolved is dropped without error. Files
// legitimately contain symbols the index cannot answer for.
func resolveModules(ctx context.Context, target *rule.Target, refs []reference) map[string]bool {
	modules := make(map[string]bool)

	for _, ref := range refs {
		if ctx.Err() != nil {
			break
		}

		offset, ok := target.File.Offset(ref.line, ref.column)
		if !ok {
			// Index position outside the current file text.
			continue
		}

		module, ok := resolveOne(ctx, target, ref.usr, offset)
		if ok && module != "" {
			modules[module] = true
		}
	}

	return modules
}

// resolveOne queries the service at the reference site and, when the
// answer names a different symbol, rescans up to maxRescanTokens
// following tokens for one that answers with the expected symbol. The
// boolean reports whether the symbol was resolved at all; the module
// may still be empty for symbols without module identity (locals).
func resolveOne(ctx context.Context, target *rule.Target, usr string, offset uint32) (string, bool) {
	if answer := queryAt(ctx, target, offset); answer != nil && answer.USR == usr {
		return semantic.RootModule(answer.Module), true
	}

	candidates := syntax.After(target.Tokens, offset)
	if len(candidates) > maxRescanTokens {
		candidates = candidates[:maxRescanTokens]
	}
	for _, tok := range candidates {
		if !tok.IsScannable() {
			continue
		}
		if answer := queryAt(ctx, target, tok.Offset); answer != nil && answer.USR == usr {
			return semantic.RootModule(answer.Module), true
		}
	}

	return "", false
}

func queryAt(ctx context.Context, target *rule.Target, offset uint32) *semantic.SymbolAnswer {
	answer, err := target.Service.ResolveAt(ctx, target.RelPath, offset, target.BuildArgs)
	if err != nil {
		return nil
	}
	return answer
}
