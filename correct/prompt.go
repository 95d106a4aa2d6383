package correct

// sectionPrompt asks the model to split the record into titled sections and
// to flag each improvement as an {original, suggested, reason} object, so the
// reconciler receives change spans directly instead of recomputing a diff.
// The %s placeholder receives the extracted text.
const sectionPrompt = `You are a precise medical document analyzer. Your task is to parse the following electronic medical record (EMR) text, separate it into its respective sections, and generate improvements within each section. For each section, identify the section title (e.g., "Patient Information", "Chief Complaint", "Medical History", "Assessment and Plan", but not limited to these only; use your own judgement to assign accurate titles) and extract its content.

Within each section's content, if there are parts that require improvement, create an object with three keys:
- "original": the original text snippet,
- "suggested": the improved version,
- "reason": a brief explanation of why the change is recommended.

If a portion of the text does not need improvement, output it as a plain string in the array.

Output a JSON array of objects, where each object represents a section with the following keys:
- "title": the section title,
- "content": an array that may include both strings and objects (as described above).

The output must be exactly this shape:

[
  {
    "title": "Section Title",
    "content": [
      "Plain text content",
      {
        "original": "Original snippet",
        "suggested": "Improved snippet",
        "reason": "Explanation of the improvement"
      },
      "More text content"
    ]
  }
]

Output only valid, parseable JSON with no additional commentary.

Here is the extracted text:
%s

Output:`

// plainPrompt asks for a flat corrected rewrite with no structure. Used by
// the secondary plain-correction endpoint.
const plainPrompt = `I have extracted the following text from a document that contains both typed text and handwritten content. The extraction includes native PDF text (which is generally accurate for typed parts) as well as OCR results from image-rendered pages. The OCR output, however, may include errors like misrecognized characters, broken words, and formatting issues. Your task is to deduce the intended meaning of the document and produce a corrected, clean version that accurately reflects the original content. Do not include any commentary or additional explanation. Only provide the corrected text.

Extracted Text:
%s

Corrected Version:`
