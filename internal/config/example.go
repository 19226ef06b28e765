package config

// DefaultExampleName is the file written by "refmasker init".
const DefaultExampleName = "refmasker.toml"

// Example is the commented configuration template.
const Example = `# refmasker configuration
#
# Every reference is masked against all references listed before it:
# homologies between the last reference and all the others are masked in
# the last one, then the second to last is masked against the ones above
# it, and so on. The first reference is written unchanged.

[align]
# Alignment program: "blastn" (NCBI BLAST+) or "kmer" (built in).
aligner = "blastn"

# Paths to the BLAST+ executables, if not on PATH.
blastn = "blastn"
makeblastdb = "makeblastdb"

# Extra command line options for blastn and makeblastdb.
blastn_opt = ""
makeblastdb_opt = ""

# blastn algorithm: blastn | blastn-short | dc-megablast | megablast | rmblastn
task = "dc-megablast"

# E-value cutoff (> 0).
evalue = 0.1

# Keep only the best hit of each query sequence.
best_per_query_seq = true

# Concurrent alignments per reference; 0 uses every CPU.
threads = 0

# Limit for one alignment call; "0" disables it.
timeout = "30m"

# Built-in aligner settings.
kmer_size = 15
min_length = 20
max_mismatch = 3

[output]
dir = "refmasker_out"

# Character written over homologous regions.
repl_char = "N"

# Replace homologous regions with the aligned query sequence instead.
repl_with_query = false

# Write only the sequences that were modified.
modif_seq_only = false

# Write all references to a single merged FASTA file.
merge_ref = true

# Output compression: none | gzip | xz
compress = "gzip"

# Bases per FASTA line; 0 writes each sequence on one line.
line_width = 60

# Run report: csv | json | both | none
report = "csv"

# Include every hit in the report.
report_full = false

# Parent of the temporary working directories; empty uses the system default.
work_dir = ""

# References, in masking order. Names must be unique; blanks become "_".
# FASTA files may be gzip or xz compressed. Relative paths are resolved
# against the directory of this file.
[[reference]]
name = "AAV"
fasta = "aav.fa.gz"

[[reference]]
name = "Backbone"
fasta = "backbone.fa"
`
