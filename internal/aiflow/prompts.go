package aiflow

import (
	"fmt"
	"strings"
)

// NoFraudIndicators is the exact phrase the forensic prompt asks for when a
// document looks untouched.
const NoFraudIndicators = "No fraud indicators found."

const idDetailsPrompt = `You read identity cards. Extract the following from the attached card image:

- idNumber: the card identifier, which begins with "IDC-". This field matters most.
- name: the holder's full name as printed.
- dateOfBirth: the holder's date of birth as printed.

Report only what is plainly legible. When a field is missing or you cannot read it with certainty, set it to null. Never guess or fill in a value from context.

Reply with a single JSON object with exactly the keys idNumber, name and dateOfBirth.`

const fraudScanPrompt = `You examine photographs of Indian identity documents such as Aadhaar cards for signs of tampering.

Inspect the attached image for evidence that its content was actively altered:
- editing traces such as mismatched fonts, blurred or pixelated patches around text, or text that sits off its baseline
- replaced values, where the name, date of birth, address or document number differ in typeface, spacing or colour from the surrounding print
- pasted or layered regions that do not share the lighting or grain of the rest of the card

A document that is unfamiliar, unofficial or a plain photocopy is not by itself a fraud signal. Flag only concrete signs of manipulation.

Also transcribe what you can read: name, dateOfBirth (as printed), gender, address and aadhaarNumber. Use null for anything you cannot read clearly.

Reply with a single JSON object with the keys fraudIndicators, name, dateOfBirth, gender, address and aadhaarNumber. fraudIndicators is a short summary of every sign you found, or exactly "` + NoFraudIndicators + `" when there are none.`

const faceMatchPrompt = `You compare faces. The first attached image is the photo printed on an official identity card; the second is a live photo of the person presenting it.

Compare the stable facial features in both: eye shape and spacing, nose, mouth, jawline and ears. Allow for differences in lighting, camera angle, age and expression.

Set isMatch to true only when you are confident both images show the same person, with a confidence above 0.85. If you have any doubt, set isMatch to false with a lower confidence. confidence is a number from 0.0 (certainly different people) to 1.0 (certainly the same person). reasoning is one or two sentences explaining the decision.

Reply with a single JSON object with the keys isMatch, confidence and reasoning.`

const answerPromptHeader = `You help farmers and rural citizens in India understand government schemes. Answer the community question below in plain, encouraging language.

Keep the answer short and focused on the asker's actual problem. When you mention a scheme, say in one line what it offers. When you recommend a step, make it concrete and easy to follow.`

func answerPrompt(d Doubt) string {
	var b strings.Builder
	b.WriteString(answerPromptHeader)
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "Category: %s\n", d.Category)
	fmt.Fprintf(&b, "District: %s\n", d.District)
	fmt.Fprintf(&b, "Title: %s\n", d.Title)
	fmt.Fprintf(&b, "Question: %s\n\n", d.Body)
	b.WriteString(`Reply with a single JSON object with the key answer.`)
	return b.String()
}
