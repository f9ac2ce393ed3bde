package llm

import (
	"fmt"
	"regexp"
	"strings"
)

var mpnTokenPattern = regexp.MustCompile(`\[ManufacturerPartNumber:(.*?)\]`)

// formatSearchTermPrompt mirrors format_search_term_prompt: biased by
// the operator-supplied MPN, description, and package, asking for ~3
// comma-separated search phrases.
func formatSearchTermPrompt(info PartInfo) string {
	return fmt.Sprintf(`Your task is to generate a small number of diverse search terms (approximately 3) for finding electronic components on Mouser.com based on the following input fields: 'Description', 'Possible MPN', and 'Package'. The goal is to create search terms that are likely to yield relevant results. Consider the following strategies when generating these terms:

1. Prioritize the 'Possible MPN': if one is provided, use it as one of the search terms, ideally as an exact match.
2. Create concise keyword-based searches from the 'Description', focusing on the most important features and component type.
3. Combine keywords from the 'Description' with the 'Package' information to narrow or broaden the search effectively.
4. Vary the level of detail in the generated search terms. Some should be more specific, while others should be broader.
5. Consider common abbreviations or alternative names for components or packages if they are likely to be used in Mouser's search.

Here is the input for the current part:
Description: %s
Possible MPN: %s
Package: %s
Other Usage Notes: %s

Generate the search terms as a comma-separated list.`, info.Description, info.PossibleMpn, info.Package, info.Notes)
}

// parseSearchTerms mirrors parse_search_terms: split on comma, trim,
// drop empties.
func parseSearchTerms(resp string) []string {
	if resp == "" {
		return nil
	}
	raw := strings.Split(resp, ",")
	out := make([]string, 0, len(raw))
	for _, term := range raw {
		term = strings.TrimSpace(term)
		if term != "" {
			out = append(out, term)
		}
	}
	return out
}

// formatEvaluationPrompt mirrors format_evaluation_prompt: the current
// item, the full BOM for cross-item consistency, and the candidate
// parts with price/availability.
func formatEvaluationPrompt(info PartInfo, projectDesc string, bom []BomContextRow, candidates []Candidate) string {
	bomLines := "None"
	if len(bom) > 0 {
		var b strings.Builder
		for i, row := range bom {
			if i > 0 {
				b.WriteString("\n")
			}
			fmt.Fprintf(&b, "- %s (Package: %s, MPN: %s)", orNA(row.Description), orNA(row.Package), orNA(row.PossibleMpn))
		}
		bomLines = b.String()
	}

	var cand strings.Builder
	for i, c := range candidates {
		if i > 0 {
			cand.WriteString("\n\n")
		}
		fmt.Fprintf(&cand, "Manufacturer: %s\nManufacturer Part Number: %s\nMouser Part Number: %s\nDescription: %s\nPrice: %s\nAvailability: %s\nDatasheet URL: %s",
			orNA(c.ManufacturerName), orNA(c.ManufacturerPartNumber), orNA(c.DistributorPartNumber), orNA(c.Description), orNA(c.Price), orNA(c.Availability), orNA(c.DatasheetURL))
	}

	return fmt.Sprintf(`Here is a list of potential parts from Mouser for the original part described below. Your task is to evaluate this list and select the single best part that matches the requirements and context provided. Consider the other parts in the project listed in the BOM.

Original Part Details (Currently Evaluating):
Quantity: %d
Description: %s
Possible MPN: %s
Package: %s
Notes/Source: %s

Project Notes:
%s

Original Bill of Materials (BOM):
%s

Mouser Search Results:
%s

When evaluating the Mouser parts, prioritize parts that are currently in stock or have a short lead time. The most important factor is that the selected part closely matches the requirements and specifications mentioned in the 'Notes/Source' field provided for the original part. Favor parts with readily available datasheets. Consider the manufacturer if project preferences are indicated in the Project Notes or the overall BOM. While important, price should be a secondary consideration after availability and functional suitability are established. Ensure the specifications and package of the selected part are compatible with the original requirement.

Return your answer in the following format so it can be easily parsed. Use EXACTLY the Manufacturer Part Number as shown in the list above, do not add manufacturer name or any other text:
[ManufacturerPartNumber:XXXXX]`, info.Qty, info.Description, info.PossibleMpn, info.Package, info.Notes, projectDesc, bomLines, cand.String())
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

// extractMpnFromEval mirrors extract_mpn_from_eval. A present but empty
// token ("[ManufacturerPartNumber:]") is treated the same as no token at
// all, matching the original's `if status=='pending' and chosen_mpn:`
// truthiness check.
func extractMpnFromEval(resp string) (string, bool) {
	if resp == "" {
		return "", false
	}
	m := mpnTokenPattern.FindStringSubmatch(resp)
	if m == nil {
		return "", false
	}
	mpn := strings.TrimSpace(m[1])
	return mpn, mpn != ""
}

// formatBomReformatPrompt mirrors format_bom_reformat_prompt: ask for a
// JSON array, defaulting qty=1 and package="unknown" for rows the model
// cannot confidently parse.
func formatBomReformatPrompt(rawJSON string) string {
	return fmt.Sprintf(`The following is a list of electronic components in an inconsistent or malformed format. Reformat it into a JSON array where each element has exactly these keys: "qty" (integer, default 1 if missing), "description" (string), "package" (string, default "unknown" if missing), "possible_mpn" (string, optional), "notes" (string, optional).

Return ONLY the JSON array, no surrounding prose or markdown code fences.

Input:
%s`, rawJSON)
}
